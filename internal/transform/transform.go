// Package transform is the transformation builder (§4.4): it lowers each
// resolved select produced by internal/sema into a Transformer IR node,
// plus one table-bootstrap Transformer per Table-declared input that some
// select actually joins against. internal/linker assembles the resulting
// list into a whole-program plan.
package transform

import (
	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/diag"
	"github.com/pthm/pansqlc/internal/ir"
	"github.com/pthm/pansqlc/internal/sema"
)

// Build walks script's statements in order, emitting a bootstrap
// Transformer the first time a Table-declared variable is joined against,
// immediately followed by one Transformer per select.
func Build(script *ast.Script, result *sema.Result) ([]ir.Transformer, error) {
	var transformers []ir.Transformer
	bootstrapped := make(map[string]bool)

	for _, stmt := range script.Statements {
		sel, ok := stmt.(*ast.Select)
		if !ok {
			continue
		}
		rs, ok := result.Selects[sel]
		if !ok {
			return nil, diag.New(diag.RuleStructural, "select has no resolved binding")
		}

		if rs.Join != nil && !bootstrapped[rs.Join.TableVarName] {
			transformers = append(transformers, buildBootstrap(rs.Join))
			bootstrapped[rs.Join.TableVarName] = true
		}

		t, err := buildTransformer(rs)
		if err != nil {
			return nil, err
		}
		transformers = append(transformers, t)
	}

	return transformers, nil
}

// buildBootstrap materializes a Table-declared input's stream into memory
// keyed by its primary key, so later joins can probe it. It carries one
// reader-column slot per field of the table's stream and yields no output
// rows (IsTableBootstrap).
func buildBootstrap(rj *sema.ResolvedJoin) ir.Transformer {
	slots := make([]ir.Slot, len(rj.TableStreamDef.Fields))
	for i, f := range rj.TableStreamDef.Fields {
		ft := f.FieldType()
		slots[i] = ir.ReaderColumnSlot{Idx: i, Tag: ft.Tag, Nullable: ft.Nullable}
	}
	return ir.Transformer{
		InputStream:      rj.TableVarName,
		OutputStream:     rj.TableVarName,
		OutputArity:      len(slots),
		Slots:            slots,
		IsTableBootstrap: true,
	}
}

// buildTransformer lowers one resolved select into its row-producing
// Transformer. In an aggregating select, a projected column that names the
// FROM stream's own field (the group key, e.g. "p.Vendor") no longer reads
// a per-row reader column: it reads the emergent key of the group-by
// combine step, so its slot becomes an AggregatorOutputSlot keyed on the
// shared group key rather than a ReaderColumnSlot.
//
// The slot vector is sized and ordered by the destination stream, not the
// select list (§3: "projection arity = destination stream field count").
// sema's checkProjection has already stamped every column with its
// destination field ordinal; any destination field no column lands on is
// necessarily nullable (checkProjection would have rejected it otherwise)
// and is padded with the null sentinel.
func buildTransformer(rs *sema.ResolvedSelect) (ir.Transformer, error) {
	isAggregating := rs.Aggregation != nil
	width := len(rs.IntoStreamDef.Fields)
	slots := make([]ir.Slot, width)
	filled := make([]bool, width)

	for _, col := range rs.Columns {
		idx := col.DestFieldIdx
		switch col.Source {
		case sema.SourceReaderColumn:
			if isAggregating {
				slots[idx] = ir.AggregatorOutputSlot{AggIdx: 0, IsKey: true, Tag: col.Type.Tag, Nullable: col.Type.Nullable}
			} else {
				slots[idx] = ir.ReaderColumnSlot{Idx: col.ReaderOrdinal, Tag: col.Type.Tag, Nullable: col.Type.Nullable}
			}

		case sema.SourceJoinColumn:
			if rs.Join == nil {
				return ir.Transformer{}, diag.New(diag.RuleStructural, "join column projected without a resolved join")
			}
			slots[idx] = ir.JoinColumnSlot{TableAlias: rs.Join.TableAlias, FieldIdx: col.JoinFieldIdx, Tag: col.Type.Tag, Nullable: col.Type.Nullable}

		case sema.SourceLiteral:
			slots[idx] = ir.ConstLiteralSlot{Kind: col.LiteralKind, Text: col.LiteralText}

		case sema.SourceAggregate:
			slots[idx] = ir.AggregatorOutputSlot{AggIdx: col.ReaderOrdinal, IsKey: false, Tag: col.Type.Tag, Nullable: col.Type.Nullable}

		default:
			return ir.Transformer{}, diag.New(diag.RuleStructural, "unresolved column source in projection")
		}
		filled[idx] = true
	}

	for i := range slots {
		if !filled[i] {
			slots[i] = ir.ConstLiteralSlot{Kind: ast.LitNull}
		}
	}

	// Every ConstLiteralSlot, whether a projected literal or a padding
	// null, is hoisted once above the row loop (§4.4).
	var constHoist []int
	for i, s := range slots {
		if _, ok := s.(ir.ConstLiteralSlot); ok {
			constHoist = append(constHoist, i)
		}
	}

	var join *ir.Join
	if rs.Join != nil {
		join = &ir.Join{
			TableAlias:     rs.Join.TableAlias,
			TableStream:    rs.Join.TableVarName,
			ProbeColumnIdx: rs.Join.ProbeColumnIdx,
			Policy:         ir.ProbeInnerSkipIfMissing,
		}
	}

	var aggregation *ir.Aggregation
	if rs.Aggregation != nil {
		aggregation = &ir.Aggregation{
			Aggregators: rs.Aggregation.Aggregators,
			Having:      rs.Aggregation.Having,
		}
	}

	return ir.Transformer{
		InputStream:  rs.FromSymbolName,
		OutputStream: rs.IntoSymbolName,
		OutputArity:  len(slots),
		Slots:        slots,
		Filter:       rs.Filter,
		Join:         join,
		Aggregation:  aggregation,
		ConstHoist:   constHoist,
	}, nil
}
