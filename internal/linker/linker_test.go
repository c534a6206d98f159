package linker

import (
	"strings"
	"testing"

	"github.com/pthm/pansqlc/internal/diag"
	"github.com/pthm/pansqlc/internal/dictionary"
	"github.com/pthm/pansqlc/internal/ir"
	"github.com/pthm/pansqlc/internal/parser"
	"github.com/pthm/pansqlc/internal/sema"
	"github.com/pthm/pansqlc/internal/transform"
)

func dictFixture(name string) *dictionary.DataDictionary {
	switch name {
	case "MyDataDict":
		return &dictionary.DataDictionary{
			Name: "MyDataDict",
			Streams: []dictionary.StreamDefinition{
				{
					Name:       "users",
					PrimaryKey: []string{"Id"},
					Fields: []dictionary.FieldDefinition{
						{Name: "Id", Tag: "Int32"},
						{Name: "Name", Tag: "UnicodeString"},
						{Name: "Address", Tag: "UnicodeString", Nullable: true},
						{Name: "TypeId", Tag: "Int32"},
					},
				},
				{
					Name:       "types",
					PrimaryKey: []string{"Id"},
					Fields: []dictionary.FieldDefinition{
						{Name: "Id", Tag: "Int32"},
						{Name: "Name", Tag: "UnicodeString"},
					},
				},
				{
					Name: "products",
					Fields: []dictionary.FieldDefinition{
						{Name: "Vendor", Tag: "Int32"},
						{Name: "Price", Tag: "Decimal"},
					},
				},
				{
					Name: "orders",
					Fields: []dictionary.FieldDefinition{
						{Name: "Id", Tag: "Int32"},
					},
				},
				{
					Name: "logs",
					Fields: []dictionary.FieldDefinition{
						{Name: "Id", Tag: "Int32"},
						{Name: "Message", Tag: "UnicodeString"},
					},
				},
				{
					Name: "counts",
					Fields: []dictionary.FieldDefinition{
						{Name: "Id", Tag: "Int32"},
						{Name: "Total", Tag: "Int32"},
					},
				},
			},
		}
	case "MyDataDict2":
		return &dictionary.DataDictionary{
			Name: "MyDataDict2",
			Streams: []dictionary.StreamDefinition{
				{
					Name: "users2",
					Fields: []dictionary.FieldDefinition{
						{Name: "Id", Tag: "Int32"},
						{Name: "Name", Tag: "UnicodeString"},
						{Name: "Address", Tag: "UnicodeString", Nullable: true},
						{Name: "Type", Tag: "UnicodeString", Nullable: true},
					},
				},
				{
					Name: "products2",
					Fields: []dictionary.FieldDefinition{
						{Name: "Vendor", Tag: "Int32"},
						{Name: "Price", Tag: "Decimal"},
					},
				},
				{
					Name: "agg",
					Fields: []dictionary.FieldDefinition{
						{Name: "Vendor", Tag: "Int32"},
						{Name: "Max", Tag: "Decimal"},
						{Name: "Count", Tag: "Int64", Nullable: true},
						{Name: "Quantity", Tag: "Int32", Nullable: true},
					},
				},
				{
					Name: "logs",
					Fields: []dictionary.FieldDefinition{
						{Name: "Id", Tag: "Int32"},
						{Name: "Message", Tag: "UnicodeString"},
					},
				},
				{
					Name: "counts",
					Fields: []dictionary.FieldDefinition{
						{Name: "Id", Tag: "Int32"},
						{Name: "Total", Tag: "Boolean"},
					},
				},
			},
		}
	default:
		return nil
	}
}

func loader(path string) (*dictionary.DataDictionary, error) {
	name := strings.TrimSuffix(path, ".pandict.yaml")
	if d := dictFixture(name); d != nil {
		return d, nil
	}
	return nil, diag.New(diag.RuleIO, "no such fixture dictionary %q", path)
}

const header = `
load MyDataDict as 'MyDataDict.pandict.yaml'
load MyDataDict2 as 'MyDataDict2.pandict.yaml'
table types as MyDataDict.types
stream users as MyDataDict.users
stream products as MyDataDict.products
table users2 as MyDataDict2.users2
table products2 as MyDataDict2.products2
table agg as MyDataDict2.agg
open reader as MSSQL for read with MyDataDict.users 'Server=.;Database=x;'
open writer as Postgres for write with MyDataDict2.users2 'host=localhost'
`

func link(t *testing.T, src string) (*ir.Program, *diag.Warnings, error) {
	t.Helper()
	script, err := parser.Parse("t", header+src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	result, err := sema.Analyze(script, loader)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	transformers, err := transform.Build(script, result)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	return Link(script, result, transformers)
}

func TestLinkExplicitMap(t *testing.T) {
	program, _, err := link(t, `
map MyDataDict.users to MyDataDict2.users2 with (Address = Address)
select p.Vendor, p.Price from products p into products2
sync reader to writer
`)
	if err != nil {
		t.Fatalf("link error: %v", err)
	}
	var found *ir.NameMap
	for i := range program.NameMaps {
		if program.NameMaps[i].SrcStream == "users" {
			found = &program.NameMaps[i]
		}
	}
	if found == nil || !found.Explicit || found.DstStream != "users2" {
		t.Fatalf("explicit map = %+v", found)
	}
	if len(found.FieldMap) != 1 || found.FieldMap[0].Dst != "Address" {
		t.Fatalf("field map = %+v", found.FieldMap)
	}
}

func TestLinkSelectImpliedMap(t *testing.T) {
	program, _, err := link(t, `
select p.Vendor, p.Price from products p into products2
sync reader to writer
`)
	if err != nil {
		t.Fatalf("link error: %v", err)
	}
	var found *ir.NameMap
	for i := range program.NameMaps {
		if program.NameMaps[i].SrcStream == "products" {
			found = &program.NameMaps[i]
		}
	}
	if found == nil || found.Explicit || found.AutoMapped || found.DstStream != "products2" {
		t.Fatalf("select-implied map = %+v", found)
	}
}

func TestLinkAutoMapsCompatibleUnhandledStream(t *testing.T) {
	program, warnings, err := link(t, `
select p.Vendor, p.Price from products p into products2
sync reader to writer
`)
	if err != nil {
		t.Fatalf("link error: %v", err)
	}
	var found *ir.NameMap
	for i := range program.NameMaps {
		if program.NameMaps[i].SrcStream == "logs" {
			found = &program.NameMaps[i]
		}
	}
	if found == nil || !found.AutoMapped || found.DstStream != "logs" {
		t.Fatalf("auto-mapped logs = %+v", found)
	}
	for _, w := range warnings.All() {
		if strings.Contains(w.Message, "logs") {
			t.Fatalf("unexpected warning about logs: %s", w.Message)
		}
	}
}

func TestLinkWarnsOnFieldIncompatibleAutoMapCandidate(t *testing.T) {
	_, warnings, err := link(t, `
select p.Vendor, p.Price from products p into products2
sync reader to writer
`)
	if err != nil {
		t.Fatalf("link error: %v", err)
	}
	found := false
	for _, w := range warnings.All() {
		if strings.Contains(w.Message, "counts") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a warning about the field-incompatible \"counts\" stream")
	}
}

func TestLinkWarnsOnUnmatchedStream(t *testing.T) {
	_, warnings, err := link(t, `
select p.Vendor, p.Price from products p into products2
sync reader to writer
`)
	if err != nil {
		t.Fatalf("link error: %v", err)
	}
	found := false
	for _, w := range warnings.All() {
		if strings.Contains(w.Message, "orders") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a warning that \"orders\" has no output counterpart")
	}
}

func TestLinkSkipsTableDeclaredStreams(t *testing.T) {
	_, warnings, err := link(t, `
select p.Vendor, p.Price from products p into products2
sync reader to writer
`)
	if err != nil {
		t.Fatalf("link error: %v", err)
	}
	for _, w := range warnings.All() {
		if strings.Contains(w.Message, "types") {
			t.Fatalf("table-declared stream %q should never be auto-mapped or warned about", "types")
		}
	}
}

func TestLinkExplicitMapTypeMismatchFails(t *testing.T) {
	_, _, err := link(t, `
map MyDataDict.users to MyDataDict2.users2 with (Type = TypeId)
select p.Vendor, p.Price from products p into products2
sync reader to writer
`)
	ce, ok := diag.Is(err)
	if !ok || ce.Rule != diag.RuleTyping {
		t.Fatalf("err = %v, want a RuleTyping CompilerError", err)
	}
}

func TestLinkMissingSyncFails(t *testing.T) {
	script, err := parser.Parse("t", header+`
select p.Vendor, p.Price from products p into products2
`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	result, err := sema.Analyze(script, loader)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	transformers, err := transform.Build(script, result)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if _, _, err := Link(script, result, transformers); err == nil {
		t.Fatal("expected an error for a script with no sync statement")
	}
}
