// Package netpass implements the multi-script network pass (§4.6): when
// a set of scripts is compiled together, it pairs a Network writer
// endpoint in one script with a Network reader endpoint in a later
// script and gives them a shared temp file carrying the destination
// dictionary, so the reading process can reconstruct the schema the
// writing process produced without its own compile-time copy of it.
package netpass

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/diag"
	"github.com/pthm/pansqlc/internal/dictionary"
	"github.com/pthm/pansqlc/internal/ir"
)

const networkConnector = "Network"

// ScriptUnit is one already-linked script, as ordered in the compile
// set. OutputDict is the dictionary behind the script's writer endpoint
// (the schema a Network writer here hands off to a later reader).
type ScriptUnit struct {
	Name       string
	Program    *ir.Program
	OutputDict *dictionary.DataDictionary
}

// TempFile is one temp file the pass allocated. Per §5, the pass owns
// none of these once it returns: the caller must release them when the
// generated programs are no longer needed.
type TempFile struct {
	Path string
}

type endpointRef struct {
	scriptIdx int
	openIdx   int
	name      string
}

// Pair scans units for Network writer/reader endpoints and rewrites
// their connection strings in place to append a shared temp-file path.
// Pairing is positional: a writer in script i pairs with the first
// still-unmatched reader of the same endpoint name in some script j > i;
// an unmatched writer is fatal.
func Pair(units []ScriptUnit) ([]TempFile, error) {
	var writers, readers []endpointRef
	for i, u := range units {
		for idx, o := range u.Program.Opens {
			if o.Connector != networkConnector {
				continue
			}
			ref := endpointRef{scriptIdx: i, openIdx: idx, name: o.Name}
			if o.Direction == ast.DirWrite {
				writers = append(writers, ref)
			} else {
				readers = append(readers, ref)
			}
		}
	}

	matchedReader := make(map[int]bool, len(readers))
	var temps []TempFile

	for _, w := range writers {
		readerIdx := -1
		for ri, r := range readers {
			if matchedReader[ri] || r.scriptIdx <= w.scriptIdx || r.name != w.name {
				continue
			}
			readerIdx = ri
			break
		}
		if readerIdx == -1 {
			return nil, diag.New(diag.RuleStructural, "network writer %q in %q has no matching reader in a later script", w.name, units[w.scriptIdx].Name)
		}
		matchedReader[readerIdx] = true
		r := readers[readerIdx]

		path, err := writeHandoffFile(units[w.scriptIdx].OutputDict)
		if err != nil {
			return nil, diag.Wrap(diag.RuleIO, err, "allocating network handoff file for %q", w.name)
		}
		temps = append(temps, TempFile{Path: path})

		writerOpen := &units[w.scriptIdx].Program.Opens[w.openIdx]
		writerOpen.ConnString = fmt.Sprintf("%s;%s", writerOpen.ConnString, path)

		readerOpen := &units[r.scriptIdx].Program.Opens[r.openIdx]
		readerOpen.ConnString = fmt.Sprintf("%s;%s", readerOpen.ConnString, path)
	}

	return temps, nil
}

// writeHandoffFile compresses dict the same way the emitter embeds
// dictionary blobs in generated source, and writes it to a fresh temp
// file the reading side's runtime will decompress.
func writeHandoffFile(dict *dictionary.DataDictionary) (string, error) {
	compressed, err := dictionary.Compress(dict)
	if err != nil {
		return "", err
	}
	path := filepath.Join(os.TempDir(), fmt.Sprintf("pansqlc-%s.dict", uuid.New().String()))
	if err := os.WriteFile(path, []byte(compressed), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
