package transform

import (
	"strings"
	"testing"

	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/dictionary"
	"github.com/pthm/pansqlc/internal/diag"
	"github.com/pthm/pansqlc/internal/ir"
	"github.com/pthm/pansqlc/internal/parser"
	"github.com/pthm/pansqlc/internal/sema"
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
						{Name: "CreatedBy", Tag: "UnicodeString", Nullable: true},
						{Name: "Notes", Tag: "UnicodeString", Nullable: true},
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
table products2 as MyDataDict2.products2
table users2 as MyDataDict2.users2
table agg as MyDataDict2.agg
open reader as MSSQL for read with MyDataDict.users 'Server=.;Database=x;'
open writer as Postgres for write with MyDataDict2.users2 'host=localhost'
`

func build(t *testing.T, src string) []ir.Transformer {
	t.Helper()
	script, err := parser.Parse("t", header+src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	result, err := sema.Analyze(script, loader)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	transformers, err := Build(script, result)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	return transformers
}

func TestBuildJoinScenarioA(t *testing.T) {
	transformers := build(t, `
select u.id, u.name, u.address, t.name AS type from users u join types t on u.typeId = t.Id into users2
sync reader to writer
`)
	if len(transformers) != 2 {
		t.Fatalf("got %d transformers, want 2 (bootstrap + join select)", len(transformers))
	}

	bootstrap := transformers[0]
	if !bootstrap.IsTableBootstrap || bootstrap.InputStream != "types" {
		t.Fatalf("bootstrap = %+v", bootstrap)
	}
	if len(bootstrap.Slots) != 2 {
		t.Fatalf("bootstrap slots = %d, want 2", len(bootstrap.Slots))
	}

	main := transformers[1]
	if main.IsTableBootstrap {
		t.Fatal("main transformer should not be a bootstrap")
	}
	if main.Join == nil || main.Join.TableAlias != "t" {
		t.Fatalf("join = %+v", main.Join)
	}
	// users2 has 6 fields; the select only projects 4 of them, so the
	// remaining 2 nullable trailing fields (CreatedBy, Notes) must be
	// padded with the null sentinel rather than dropped.
	if len(main.Slots) != 6 {
		t.Fatalf("got %d slots, want 6", len(main.Slots))
	}
	joinSlot, ok := main.Slots[3].(ir.JoinColumnSlot)
	if !ok || joinSlot.TableAlias != "t" {
		t.Fatalf("slot 3 = %+v, want a JoinColumnSlot on t", main.Slots[3])
	}
	for _, idx := range []int{4, 5} {
		nullSlot, ok := main.Slots[idx].(ir.ConstLiteralSlot)
		if !ok || nullSlot.Kind != ast.LitNull {
			t.Fatalf("slot %d = %+v, want a DBNull padding slot", idx, main.Slots[idx])
		}
	}
}

func TestBuildFilterScenarioD(t *testing.T) {
	transformers := build(t, `
select p.Vendor, p.Price from products p where p.Vendor = 1 into products2
sync reader to writer
`)
	if len(transformers) != 1 {
		t.Fatalf("got %d transformers, want 1", len(transformers))
	}
	if transformers[0].Filter == nil {
		t.Fatal("expected a filter")
	}
}

func TestBuildGroupByHavingScenarioEF(t *testing.T) {
	transformers := build(t, `
select p.Vendor, max(p.Price), count(p.Price) from products p group by Vendor having count(*) > 5 into agg
sync reader to writer
`)
	if len(transformers) != 1 {
		t.Fatalf("got %d transformers, want 1", len(transformers))
	}
	tr := transformers[0]
	if tr.Aggregation == nil || tr.Aggregation.Having == nil {
		t.Fatal("expected an aggregation with a having expression")
	}
	if len(tr.Aggregation.Aggregators) != 3 {
		t.Fatalf("got %d aggregators, want 3", len(tr.Aggregation.Aggregators))
	}
	keySlot, ok := tr.Slots[0].(ir.AggregatorOutputSlot)
	if !ok || !keySlot.IsKey {
		t.Fatalf("slot 0 = %+v, want an AggregatorOutputSlot key", tr.Slots[0])
	}
	valSlot, ok := tr.Slots[1].(ir.AggregatorOutputSlot)
	if !ok || valSlot.IsKey || valSlot.AggIdx != 0 {
		t.Fatalf("slot 1 = %+v, want aggregator 0's value", tr.Slots[1])
	}
}

func TestBuildLiteralSlotScenarioG(t *testing.T) {
	transformers := build(t, `
select p.Vendor, max(p.Price), 10 Quantity from products p group by Vendor into agg
sync reader to writer
`)
	tr := transformers[0]
	// agg's fields are Vendor, Max, Count, Quantity: "10 Quantity" lands
	// on destination index 3, and the unprojected nullable Count field
	// (index 2) is padded with the null sentinel, also const-hoisted.
	if len(tr.ConstHoist) != 2 || tr.ConstHoist[0] != 2 || tr.ConstHoist[1] != 3 {
		t.Fatalf("const hoist = %+v, want [2 3]", tr.ConstHoist)
	}
	nullSlot, ok := tr.Slots[2].(ir.ConstLiteralSlot)
	if !ok || nullSlot.Kind != ast.LitNull {
		t.Fatalf("slot 2 = %+v, want a DBNull padding slot for the unprojected Count field", tr.Slots[2])
	}
	litSlot, ok := tr.Slots[3].(ir.ConstLiteralSlot)
	if !ok || litSlot.Text != "10" {
		t.Fatalf("slot 3 = %+v", tr.Slots[3])
	}
}
