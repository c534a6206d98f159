package netpass

import (
	"os"
	"strings"
	"testing"

	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/dictionary"
	"github.com/pthm/pansqlc/internal/ir"
)

func fixtureDict() *dictionary.DataDictionary {
	return &dictionary.DataDictionary{
		Name: "MyDataDict2",
		Streams: []dictionary.StreamDefinition{
			{
				Name: "users2",
				Fields: []dictionary.FieldDefinition{
					{Name: "Id", Tag: "Int32"},
					{Name: "Name", Tag: "UnicodeString"},
				},
			},
		},
	}
}

func TestPairNetworkWriterAndReaderScenarioH(t *testing.T) {
	writerScript := ScriptUnit{
		Name: "script1",
		Program: &ir.Program{
			Opens: []ir.OpenEndpoint{
				{Name: "net", Connector: "Network", Direction: ast.DirWrite, ConnString: "127.0.0.1"},
			},
		},
		OutputDict: fixtureDict(),
	}
	readerScript := ScriptUnit{
		Name: "script2",
		Program: &ir.Program{
			Opens: []ir.OpenEndpoint{
				{Name: "net", Connector: "Network", Direction: ast.DirRead, ConnString: "127.0.0.1"},
			},
		},
	}

	temps, err := Pair([]ScriptUnit{writerScript, readerScript})
	if err != nil {
		t.Fatalf("pair error: %v", err)
	}
	if len(temps) != 1 {
		t.Fatalf("got %d temp files, want 1", len(temps))
	}
	defer os.Remove(temps[0].Path)

	writerConn := writerScript.Program.Opens[0].ConnString
	readerConn := readerScript.Program.Opens[0].ConnString
	if !strings.HasSuffix(writerConn, temps[0].Path) || !strings.HasPrefix(writerConn, "127.0.0.1;") {
		t.Fatalf("writer conn string = %q", writerConn)
	}
	if !strings.HasSuffix(readerConn, temps[0].Path) || !strings.HasPrefix(readerConn, "127.0.0.1;") {
		t.Fatalf("reader conn string = %q", readerConn)
	}

	contents, err := os.ReadFile(temps[0].Path)
	if err != nil {
		t.Fatalf("reading handoff file: %v", err)
	}
	decoded, err := dictionary.Decompress(string(contents))
	if err != nil {
		t.Fatalf("decompressing handoff file: %v", err)
	}
	if decoded.Name != "MyDataDict2" {
		t.Fatalf("decoded dict = %+v", decoded)
	}
}

func TestPairUnmatchedWriterFails(t *testing.T) {
	writerScript := ScriptUnit{
		Name: "script1",
		Program: &ir.Program{
			Opens: []ir.OpenEndpoint{
				{Name: "net", Connector: "Network", Direction: ast.DirWrite, ConnString: "127.0.0.1"},
			},
		},
		OutputDict: fixtureDict(),
	}
	if _, err := Pair([]ScriptUnit{writerScript}); err == nil {
		t.Fatal("expected an error for an unmatched network writer")
	}
}

func TestPairReaderInEarlierScriptDoesNotMatch(t *testing.T) {
	readerScript := ScriptUnit{
		Name: "script1",
		Program: &ir.Program{
			Opens: []ir.OpenEndpoint{
				{Name: "net", Connector: "Network", Direction: ast.DirRead, ConnString: "127.0.0.1"},
			},
		},
	}
	writerScript := ScriptUnit{
		Name: "script2",
		Program: &ir.Program{
			Opens: []ir.OpenEndpoint{
				{Name: "net", Connector: "Network", Direction: ast.DirWrite, ConnString: "127.0.0.1"},
			},
		},
		OutputDict: fixtureDict(),
	}
	if _, err := Pair([]ScriptUnit{readerScript, writerScript}); err == nil {
		t.Fatal("expected an error: the only reader is not in a later script than the writer")
	}
}

func TestPairIgnoresNonNetworkConnectors(t *testing.T) {
	units := []ScriptUnit{
		{
			Name: "script1",
			Program: &ir.Program{
				Opens: []ir.OpenEndpoint{
					{Name: "reader", Connector: "MSSQL", Direction: ast.DirRead, ConnString: "Server=.;"},
					{Name: "writer", Connector: "Postgres", Direction: ast.DirWrite, ConnString: "host=localhost"},
				},
			},
			OutputDict: fixtureDict(),
		},
	}
	temps, err := Pair(units)
	if err != nil {
		t.Fatalf("pair error: %v", err)
	}
	if len(temps) != 0 {
		t.Fatalf("got %d temp files, want 0", len(temps))
	}
	if units[0].Program.Opens[0].ConnString != "Server=.;" {
		t.Fatalf("non-network open string was rewritten: %q", units[0].Program.Opens[0].ConnString)
	}
}
