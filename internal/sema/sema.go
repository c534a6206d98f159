// Package sema is the semantic analyzer (§4.3): seven ordered passes over
// a parsed Script that resolve declarations, bind select/join/filter/
// having expressions against dictionaries, enforce the single-use and
// ordering rules, validate projections against destination streams, and
// check field-rename maps. It produces a symbol table plus a per-select
// side-table of resolved bindings for internal/transform to lower; the
// AST itself is never mutated.
package sema

import (
	"strings"

	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/connectorcat"
	"github.com/pthm/pansqlc/internal/diag"
	"github.com/pthm/pansqlc/internal/dictionary"
	"github.com/pthm/pansqlc/internal/ir"
	"github.com/pthm/pansqlc/internal/symtab"
	"github.com/pthm/pansqlc/internal/types"
)

// DictionaryLoader resolves a Load statement's path to a parsed
// dictionary. Analyze takes one as a parameter rather than reading the
// filesystem directly so tests can supply in-memory fixtures.
type DictionaryLoader func(path string) (*dictionary.DataDictionary, error)

// ColumnSource tags where a resolved projection column's value comes
// from, mirroring the four slot kinds the data model defines.
type ColumnSource int

const (
	SourceReaderColumn ColumnSource = iota
	SourceJoinColumn
	SourceLiteral
	SourceAggregate
)

// ResolvedColumn is one resolved select-list item.
type ResolvedColumn struct {
	Source ColumnSource
	Alias  string
	Type   types.FieldType

	// DestFieldIdx is this column's ordinal on the destination
	// StreamDefinition, filled in by checkProjection. internal/transform
	// lowers the projection to a slot vector indexed by this, not by
	// select-list position, so the emitted record is always destination-
	// field-order and destination-field-width (§3).
	DestFieldIdx int

	ReaderOrdinal int // SourceReaderColumn; for SourceAggregate, the aggregator's index

	JoinFieldIdx int // SourceJoinColumn

	LiteralKind ast.LiteralKind // SourceLiteral
	LiteralText string

	AggKind         ir.AggregatorKind // SourceAggregate
	AggValueOrdinal int               // -1 for count(*)
}

// ResolvedJoin is the resolved single join a select may declare.
type ResolvedJoin struct {
	TableVarName   string // the Table-declared symbol name, e.g. "types"
	TableAlias     string // the query's local alias, e.g. "t"
	TableStreamDef dictionary.StreamDefinition
	ProbeColumnIdx int // reader ordinal on the FROM side
}

// Aggregation is the resolved group-by plan for a select, when present.
type Aggregation struct {
	Aggregators []ir.Aggregator
	Having      ir.Expr
}

// ResolvedSelect is the side-table entry for one *ast.Select.
type ResolvedSelect struct {
	FromSymbolName string
	FromDictName   string // the script's bound name for the dictionary the FROM stream comes from
	FromStreamDef  dictionary.StreamDefinition
	FromIsStream   bool

	Join *ResolvedJoin

	Columns     []ResolvedColumn
	Filter      ir.Expr
	Aggregation *Aggregation

	IntoSymbolName string
	IntoDictName   string // the script's bound name for the dictionary the INTO stream targets
	IntoStreamDef  dictionary.StreamDefinition
	IntoIsTable    bool
}

// ResolvedMap is a validated field-rename set for one Map statement.
type ResolvedMap struct {
	SrcDictName  string
	SrcStreamDef dictionary.StreamDefinition
	DstDictName  string
	DstStreamDef dictionary.StreamDefinition
	FieldMap     []ast.FieldRename
}

// Result is everything later passes need: the frozen symbol table and the
// per-statement resolution side-tables.
type Result struct {
	Symbols *symtab.Table
	Selects map[*ast.Select]*ResolvedSelect
	Maps    []ResolvedMap

	// Dictionaries holds every dictionary a Load statement bound, keyed by
	// its script-bound name, for internal/emitter to embed without
	// re-walking the symbol table for KindDict entries.
	Dictionaries map[string]*dictionary.DataDictionary
}

type analyzer struct {
	script       *ast.Script
	loadDict     DictionaryLoader
	symbols      *symtab.Table
	selects      map[*ast.Select]*ResolvedSelect
	maps         []ResolvedMap
	dictionaries map[string]*dictionary.DataDictionary
}

// Analyze runs the full pass pipeline over script, aborting with the
// first fatal *diag.CompilerError it encounters.
func Analyze(script *ast.Script, loadDict DictionaryLoader) (*Result, error) {
	a := &analyzer{
		script:       script,
		loadDict:     loadDict,
		symbols:      symtab.New(),
		selects:      make(map[*ast.Select]*ResolvedSelect),
		dictionaries: make(map[string]*dictionary.DataDictionary),
	}

	if err := a.resolveDeclarations(); err != nil {
		return nil, err
	}
	if err := a.resolveStatements(); err != nil {
		return nil, err
	}

	return &Result{Symbols: a.symbols, Selects: a.selects, Maps: a.maps, Dictionaries: a.dictionaries}, nil
}

// resolveDeclarations is pass 1: Load/Decl/Open populate the symbol
// table. Redeclaration is fatal (enforced by symtab.Table.Declare).
func (a *analyzer) resolveDeclarations() error {
	for _, stmt := range a.script.Statements {
		switch s := stmt.(type) {
		case *ast.Load:
			dict, err := a.loadDict(s.DictPath)
			if err != nil {
				return diag.Wrap(diag.RuleIO, err, "loading dictionary %q", s.DictPath)
			}
			if err := a.symbols.Declare(&symtab.Symbol{Name: s.Name, Kind: symtab.KindDict, Dict: dict}); err != nil {
				return diag.Wrap(diag.RuleResolve, err, "load %q", s.Name)
			}
			a.dictionaries[s.Name] = dict

		case *ast.Decl:
			dict, stream, err := a.resolveDictStream(s.Ref)
			if err != nil {
				return err
			}
			kind := symtab.KindStreamVar
			if s.Kind == ast.DeclTable {
				kind = symtab.KindTableVar
			}
			sym := &symtab.Symbol{Name: s.Name, Kind: kind, OriginDict: dict, OriginDictName: s.Ref.Dict, Stream: stream}
			if err := a.symbols.Declare(sym); err != nil {
				return diag.Wrap(diag.RuleResolve, err, "declaring %q", s.Name)
			}

		case *ast.Open:
			dict, stream, err := a.resolveDictStream(s.DictRef)
			if err != nil {
				return err
			}
			if err := a.validateConnector(s); err != nil {
				return err
			}
			kind := symtab.KindReader
			if s.Direction == ast.DirWrite {
				kind = symtab.KindWriter
			}
			sym := &symtab.Symbol{
				Name: s.Name, Kind: kind, OriginDict: dict, OriginDictName: s.DictRef.Dict, Stream: stream,
				Connector: s.Connector, Direction: s.Direction,
			}
			if err := a.symbols.Declare(sym); err != nil {
				return diag.Wrap(diag.RuleResolve, err, "opening %q", s.Name)
			}
		}
	}
	return nil
}

func (a *analyzer) resolveDictStream(ref ast.DictStreamRef) (*dictionary.DataDictionary, dictionary.StreamDefinition, error) {
	dictSym, ok := a.symbols.Lookup(ref.Dict)
	if !ok || dictSym.Kind != symtab.KindDict {
		return nil, dictionary.StreamDefinition{}, diag.New(diag.RuleResolve, "unknown dictionary %q", ref.Dict)
	}
	stream, ok := dictSym.Dict.StreamFold(ref.Stream)
	if !ok {
		return nil, dictionary.StreamDefinition{}, diag.New(diag.RuleResolve, "dictionary %q has no stream %q", ref.Dict, ref.Stream)
	}
	return dictSym.Dict, stream, nil
}

// resolveStatements runs passes 2-7 over Select, Map, Sync, and Abort
// statements, in script order, sharing single-use state across selects.
func (a *analyzer) resolveStatements() error {
	for _, stmt := range a.script.Statements {
		switch s := stmt.(type) {
		case *ast.Select:
			resolved, err := a.resolveSelect(s)
			if err != nil {
				return err
			}
			a.selects[s] = resolved

		case *ast.Map:
			resolved, err := a.resolveMap(s)
			if err != nil {
				return err
			}
			a.maps = append(a.maps, *resolved)

		case *ast.Sync:
			if err := a.resolveSync(s); err != nil {
				return err
			}

		case *ast.Abort:
			return diag.New(diag.RuleStructural, "%s", s.Message)
		}
	}
	return nil
}

func (a *analyzer) resolveSync(s *ast.Sync) error {
	reader, ok := a.symbols.Lookup(s.ReaderName)
	if !ok || reader.Kind != symtab.KindReader {
		return diag.New(diag.RuleResolve, "%q is not a declared reader", s.ReaderName)
	}
	writer, ok := a.symbols.Lookup(s.WriterName)
	if !ok || writer.Kind != symtab.KindWriter {
		return diag.New(diag.RuleResolve, "%q is not a declared writer", s.WriterName)
	}
	return nil
}

func (a *analyzer) resolveMap(s *ast.Map) (*ResolvedMap, error) {
	srcDictSym, ok := a.symbols.Lookup(s.Src.Dict)
	if !ok || srcDictSym.Kind != symtab.KindDict {
		return nil, diag.New(diag.RuleResolve, "unknown dictionary %q", s.Src.Dict)
	}
	srcStream, ok := srcDictSym.Dict.StreamFold(s.Src.Stream)
	if !ok {
		return nil, diag.New(diag.RuleResolve, "dictionary %q has no stream %q", s.Src.Dict, s.Src.Stream)
	}

	dstDictSym, ok := a.symbols.Lookup(s.Dst.Dict)
	if !ok || dstDictSym.Kind != symtab.KindDict {
		return nil, diag.New(diag.RuleResolve, "unknown dictionary %q", s.Dst.Dict)
	}
	dstStream, ok := dstDictSym.Dict.StreamFold(s.Dst.Stream)
	if !ok {
		return nil, diag.New(diag.RuleResolve, "dictionary %q has no stream %q", s.Dst.Dict, s.Dst.Stream)
	}

	seen := make(map[string]bool)
	for _, fr := range s.FieldMap {
		if _, ok := dstStream.FieldFold(fr.Dst); !ok {
			return nil, diag.New(diag.RuleResolve, "unknown field %q on %s", fr.Dst, dstStream.Name)
		}
		if _, ok := srcStream.FieldFold(fr.Src); !ok {
			return nil, diag.New(diag.RuleResolve, "unknown field %q on %s", fr.Src, srcStream.Name)
		}
		key := strings.ToLower(fr.Dst)
		if seen[key] {
			return nil, diag.New(diag.RuleResolve, "field %q is mapped more than once", fr.Dst)
		}
		seen[key] = true
	}

	return &ResolvedMap{
		SrcDictName:  s.Src.Dict,
		SrcStreamDef: srcStream,
		DstDictName:  s.Dst.Dict,
		DstStreamDef: dstStream,
		FieldMap:     s.FieldMap,
	}, nil
}

// fromContext carries the column-resolution environment for one select:
// which alias names the FROM/JOIN sides and how to turn a qualified
// column reference into a reader or join-column source.
type fromContext struct {
	fromAlias string
	fromDef   dictionary.StreamDefinition
	joinAlias string
	joinDef   dictionary.StreamDefinition
	hasJoin   bool
}

func (a *analyzer) resolveSelect(s *ast.Select) (*ResolvedSelect, error) {
	q := s.Query

	fromSym, ok := a.symbols.Lookup(q.From.Name)
	if !ok || (fromSym.Kind != symtab.KindStreamVar && fromSym.Kind != symtab.KindTableVar) {
		return nil, diag.New(diag.RuleResolve, "%q is not a declared stream or table", q.From.Name)
	}
	fromIsStream := fromSym.Kind == symtab.KindStreamVar

	// Single-use check (pass 3).
	if fromIsStream {
		if fromSym.Consumed {
			return nil, diag.New(diag.RuleStructural, "the stream %q has already been processed", q.From.Name)
		}
		fromSym.Consumed = true
	}

	// Ordering check (pass 5).
	if len(q.OrderBy) > 0 && fromIsStream {
		return nil, diag.New(diag.RuleStructural, "ORDER BY is not supported for queries involving a STREAM input")
	}

	fc := fromContext{fromAlias: q.From.Alias, fromDef: fromSym.Stream}

	var resolvedJoin *ResolvedJoin
	if q.Join != nil {
		rj, err := a.resolveJoin(q, &fc)
		if err != nil {
			return nil, err
		}
		resolvedJoin = rj
	}

	intoSym, ok := a.symbols.Lookup(s.Into)
	if !ok || (intoSym.Kind != symtab.KindStreamVar && intoSym.Kind != symtab.KindTableVar) {
		return nil, diag.New(diag.RuleResolve, "%q is not a declared stream or table", s.Into)
	}

	columns, aggregators, err := a.resolveColumns(q, &fc)
	if err != nil {
		return nil, err
	}

	var filter ir.Expr
	if q.Where != nil {
		filter, err = a.resolveScalarExpr(q.Where, &fc)
		if err != nil {
			return nil, err
		}
	}

	var aggregation *Aggregation
	if len(aggregators) > 0 || q.Having != nil {
		aggregation = &Aggregation{Aggregators: aggregators}
		if q.Having != nil {
			having, err := a.resolveAggregateExpr(q.Having, &aggregation.Aggregators)
			if err != nil {
				return nil, err
			}
			aggregation.Having = having
		}

		groupKeyIdx := -1
		if len(q.GroupBy) > 0 {
			field, _, ordinal, err := a.resolveColumnRef(q.GroupBy[0], &fc)
			if err != nil {
				return nil, err
			}
			_ = field
			groupKeyIdx = ordinal
		}
		for i := range aggregation.Aggregators {
			aggregation.Aggregators[i].KeyColIdx = groupKeyIdx
		}
	}

	if err := a.checkProjection(columns, intoSym.Stream, s.Into); err != nil {
		return nil, err
	}

	return &ResolvedSelect{
		FromSymbolName: q.From.Name,
		FromDictName:   fromSym.OriginDictName,
		FromStreamDef:  fromSym.Stream,
		FromIsStream:   fromIsStream,
		Join:           resolvedJoin,
		Columns:        columns,
		Filter:         filter,
		Aggregation:    aggregation,
		IntoSymbolName: s.Into,
		IntoDictName:   intoSym.OriginDictName,
		IntoStreamDef:  intoSym.Stream,
		IntoIsTable:    intoSym.Kind == symtab.KindTableVar,
	}, nil
}

// resolveJoin is pass 4: the JOIN right-hand must be a Table-declared
// variable whose equality key is its unique/primary-key field.
func (a *analyzer) resolveJoin(q *ast.Query, fc *fromContext) (*ResolvedJoin, error) {
	tableSym, ok := a.symbols.Lookup(q.Join.Table.Name)
	if !ok || tableSym.Kind != symtab.KindTableVar {
		return nil, diag.New(diag.RuleStructural, "JOIN requires a Table-declared input, %q is not one", q.Join.Table.Name)
	}

	keyField, ok := tableSym.Stream.UniqueKeyField()
	if !ok {
		return nil, diag.New(diag.RuleStructural, "table %q has no single-field primary key to join against", q.Join.Table.Name)
	}

	// Whichever side of the ON clause qualifies with the table's alias
	// must name that unique key field; the other side must be a column on
	// the FROM side, which becomes the probe column.
	left, right := q.Join.Left, q.Join.Right
	var probeRef ast.ColumnRef
	switch {
	case left.Qualifier == q.Join.Table.Alias:
		if !foldEqual(left.Name, keyField.Name) {
			return nil, diag.New(diag.RuleStructural, "JOIN key must be the table's primary key field %q", keyField.Name)
		}
		probeRef = right
	case right.Qualifier == q.Join.Table.Alias:
		if !foldEqual(right.Name, keyField.Name) {
			return nil, diag.New(diag.RuleStructural, "JOIN key must be the table's primary key field %q", keyField.Name)
		}
		probeRef = left
	default:
		return nil, diag.New(diag.RuleResolve, "JOIN condition does not reference %q", q.Join.Table.Alias)
	}

	if probeRef.Qualifier != fc.fromAlias {
		return nil, diag.New(diag.RuleResolve, "JOIN condition does not reference %q", fc.fromAlias)
	}
	probeField, ok := fc.fromDef.FieldFold(probeRef.Name)
	if !ok {
		return nil, diag.New(diag.RuleResolve, "unknown field %q on %s", probeRef.Name, fc.fromDef.Name)
	}

	fc.joinAlias = q.Join.Table.Alias
	fc.joinDef = tableSym.Stream
	fc.hasJoin = true

	return &ResolvedJoin{
		TableVarName:   q.Join.Table.Name,
		TableAlias:     q.Join.Table.Alias,
		TableStreamDef: tableSym.Stream,
		ProbeColumnIdx: fieldOrdinal(fc.fromDef, probeField.Name),
	}, nil
}

func foldEqual(a, b string) bool { return strings.EqualFold(a, b) }

func fieldOrdinal(def dictionary.StreamDefinition, name string) int {
	for i, f := range def.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// resolveColumns is pass 2 (column resolution) for the select list. It
// also collects the ordered aggregator list used for an aggregating
// select, per §4.4's "aggregators are numbered in declaration order".
func (a *analyzer) resolveColumns(q *ast.Query, fc *fromContext) ([]ResolvedColumn, []ir.Aggregator, error) {
	var columns []ResolvedColumn
	var aggregators []ir.Aggregator
	isAggregating := false
	for _, item := range q.Columns {
		if _, ok := item.Expr.(ast.FuncCall); ok {
			isAggregating = true
			break
		}
	}

	for _, item := range q.Columns {
		switch e := item.Expr.(type) {
		case ast.ColumnRef:
			field, fromJoin, ordinal, err := a.resolveColumnRef(e, fc)
			if err != nil {
				return nil, nil, err
			}
			if isAggregating && !fromJoin && !groupedBy(q.GroupBy, e) {
				return nil, nil, diag.New(diag.RuleStructural, "column %q must appear in GROUP BY or be used in an aggregate function", field.Name)
			}
			col := ResolvedColumn{Alias: aliasOr(item, field.Name), Type: field.FieldType()}
			if fromJoin {
				col.Source = SourceJoinColumn
				col.JoinFieldIdx = ordinal
			} else {
				col.Source = SourceReaderColumn
				col.ReaderOrdinal = ordinal
			}
			columns = append(columns, col)

		case ast.Literal:
			columns = append(columns, ResolvedColumn{
				Source:      SourceLiteral,
				Alias:       item.Alias,
				LiteralKind: e.Kind,
				LiteralText: e.Text,
				Type:        literalFieldType(e.Kind),
			})

		case ast.FuncCall:
			agg, ordinal, err := a.resolveAggregateCall(e, fc)
			if err != nil {
				return nil, nil, err
			}
			aggIdx := len(aggregators)
			aggregators = append(aggregators, agg)
			valueType := types.FieldType{Tag: types.TagInt64}
			if ordinal >= 0 && agg.Kind != ir.AggCount {
				f := fc.fromDef.Fields[agg.ValueColIdx]
				valueType = f.FieldType()
			}
			columns = append(columns, ResolvedColumn{
				Source:          SourceAggregate,
				Alias:           aliasOr(item, strings.ToLower(e.Name)),
				AggKind:         agg.Kind,
				AggValueOrdinal: agg.ValueColIdx,
				Type:            valueType,
				ReaderOrdinal:   aggIdx,
			})

		default:
			return nil, nil, diag.New(diag.RuleStructural, "unsupported expression in projection list")
		}
	}
	return columns, aggregators, nil
}

func aliasOr(item ast.SelectItem, fallback string) string {
	if item.Alias != "" {
		return item.Alias
	}
	return fallback
}

func groupedBy(groupBy []ast.ColumnRef, col ast.ColumnRef) bool {
	for _, g := range groupBy {
		if strings.EqualFold(g.Name, col.Name) && (g.Qualifier == "" || strings.EqualFold(g.Qualifier, col.Qualifier)) {
			return true
		}
	}
	return false
}

func literalFieldType(kind ast.LiteralKind) types.FieldType {
	switch kind {
	case ast.LitInt:
		return types.FieldType{Tag: types.TagInt32}
	case ast.LitDecimal:
		return types.FieldType{Tag: types.TagDecimal}
	case ast.LitNull:
		return types.FieldType{Nullable: true, Wildcard: true}
	default:
		return types.FieldType{Tag: types.TagUnicodeString}
	}
}

func (a *analyzer) resolveColumnRef(ref ast.ColumnRef, fc *fromContext) (dictionary.FieldDefinition, bool, int, error) {
	switch {
	case ref.Qualifier == fc.fromAlias || ref.Qualifier == "":
		field, ok := fc.fromDef.FieldFold(ref.Name)
		if !ok {
			return dictionary.FieldDefinition{}, false, 0, diag.New(diag.RuleResolve, "unknown field %q on %s", ref.Name, fc.fromDef.Name)
		}
		return field, false, fieldOrdinal(fc.fromDef, field.Name), nil
	case fc.hasJoin && ref.Qualifier == fc.joinAlias:
		field, ok := fc.joinDef.FieldFold(ref.Name)
		if !ok {
			return dictionary.FieldDefinition{}, false, 0, diag.New(diag.RuleResolve, "unknown field %q on %s", ref.Name, fc.joinDef.Name)
		}
		return field, true, fieldOrdinal(fc.joinDef, field.Name), nil
	default:
		return dictionary.FieldDefinition{}, false, 0, diag.New(diag.RuleResolve, "unknown table alias %q", ref.Qualifier)
	}
}

var aggKindByName = map[string]ir.AggregatorKind{
	"max":   ir.AggMax,
	"min":   ir.AggMin,
	"sum":   ir.AggSum,
	"count": ir.AggCount,
	"avg":   ir.AggAvg,
}

func (a *analyzer) resolveAggregateCall(call ast.FuncCall, fc *fromContext) (ir.Aggregator, int, error) {
	kind, ok := aggKindByName[strings.ToLower(call.Name)]
	if !ok {
		return ir.Aggregator{}, 0, diag.New(diag.RuleResolve, "unknown function %q", call.Name)
	}
	if len(call.Args) == 1 {
		if _, isStar := call.Args[0].(ast.Star); isStar {
			if kind != ir.AggCount {
				return ir.Aggregator{}, 0, diag.New(diag.RuleStructural, "%q is not valid; '*' is only legal inside count(*)", call.Name)
			}
			return ir.Aggregator{Kind: ir.AggCount, ValueColIdx: -1}, -1, nil
		}
		ref, ok := call.Args[0].(ast.ColumnRef)
		if !ok {
			return ir.Aggregator{}, 0, diag.New(diag.RuleStructural, "aggregate function argument must be a column reference")
		}
		field, fromJoin, ordinal, err := a.resolveColumnRef(ref, fc)
		if err != nil {
			return ir.Aggregator{}, 0, err
		}
		if fromJoin {
			return ir.Aggregator{}, 0, diag.New(diag.RuleStructural, "aggregate functions may not reference the joined table")
		}
		_ = field
		return ir.Aggregator{Kind: kind, ValueColIdx: ordinal}, ordinal, nil
	}
	return ir.Aggregator{}, 0, diag.New(diag.RuleStructural, "%q takes exactly one argument", call.Name)
}

// checkProjection is pass 6: arity, name resolution, assignability, and
// null-coverage against the destination StreamDefinition. It also stamps
// each column with its destination field ordinal, so internal/transform
// can lower the projection to a full destination-width slot vector rather
// than one slot per select-list item (§3: "projection arity = destination
// stream field count").
func (a *analyzer) checkProjection(columns []ResolvedColumn, dst dictionary.StreamDefinition, dstVarName string) error {
	assigned := make(map[string]bool)
	for i := range columns {
		field, ok := dst.FieldFold(columns[i].Alias)
		if !ok {
			return diag.New(diag.RuleResolve, "unknown field %q on %s", columns[i].Alias, dstVarName)
		}
		if !types.Assignable(columns[i].Type, field.FieldType()) {
			return diag.New(diag.RuleTyping, "field %q on %s cannot be assigned a value of an incompatible type", field.Name, dstVarName)
		}
		columns[i].DestFieldIdx = fieldOrdinal(dst, field.Name)
		assigned[field.Name] = true
	}

	var missing []string
	for _, f := range dst.Fields {
		if !f.Nullable && !assigned[f.Name] {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return diag.New(diag.RuleTyping,
			"The following field(s) on %s are not nullable, but are not assigned a value: %s",
			dstVarName, strings.Join(missing, ", "))
	}
	return nil
}

// validateConnector checks that s.Connector is a known catalog entry and
// that its connection string is at least structurally well-formed (§4.10).
func (a *analyzer) validateConnector(s *ast.Open) error {
	if _, ok := connectorcat.Lookup(s.Connector); !ok {
		return diag.New(diag.RuleResolve, "unknown connector %q", s.Connector)
	}
	if err := connectorcat.ValidateConnString(s.Connector, s.ConnString); err != nil {
		return diag.Wrap(diag.RuleStructural, err, "opening %q", s.Name)
	}
	return nil
}

// resolveScalarExpr lowers a WHERE predicate, which may only reference
// the FROM stream's columns and literals (§4.4: filters run before any
// join/aggregation binds additional context).
func (a *analyzer) resolveScalarExpr(e ast.Expr, fc *fromContext) (ir.Expr, error) {
	switch n := e.(type) {
	case ast.ColumnRef:
		field, fromJoin, ordinal, err := a.resolveColumnRef(n, fc)
		if err != nil {
			return nil, err
		}
		if fromJoin {
			return nil, diag.New(diag.RuleStructural, "filter predicates may not reference the joined table")
		}
		ft := field.FieldType()
		return ir.ColumnRef{Idx: ordinal, Tag: ft.Tag, Nullable: ft.Nullable}, nil
	case ast.Literal:
		return ir.Literal{Kind: n.Kind, Text: n.Text}, nil
	case ast.BinaryExpr:
		left, err := a.resolveScalarExpr(n.Left, fc)
		if err != nil {
			return nil, err
		}
		right, err := a.resolveScalarExpr(n.Right, fc)
		if err != nil {
			return nil, err
		}
		return ir.BinaryExpr{Op: n.Op, Left: left, Right: right}, nil
	case ast.UnaryExpr:
		inner, err := a.resolveScalarExpr(n.Expr, fc)
		if err != nil {
			return nil, err
		}
		return ir.UnaryExpr{Op: n.Op, Expr: inner}, nil
	case ast.Paren:
		return a.resolveScalarExpr(n.Expr, fc)
	default:
		return nil, diag.New(diag.RuleStructural, "unsupported expression in predicate")
	}
}

// resolveAggregateExpr lowers a HAVING predicate, whose leaves are
// aggregate function calls over the emergent post-aggregation tuple. A
// function call matching an already-collected aggregator by kind and
// value column is reused by index; otherwise a new aggregator is
// appended (e.g. a bare "count(*)" that wasn't itself projected).
func (a *analyzer) resolveAggregateExpr(e ast.Expr, aggregators *[]ir.Aggregator) (ir.Expr, error) {
	switch n := e.(type) {
	case ast.FuncCall:
		kind, ok := aggKindByName[strings.ToLower(n.Name)]
		if !ok {
			return nil, diag.New(diag.RuleResolve, "unknown function %q", n.Name)
		}
		valueIdx := -1
		if len(n.Args) == 1 {
			if _, isStar := n.Args[0].(ast.Star); !isStar {
				return nil, diag.New(diag.RuleStructural, "HAVING aggregate arguments must be '*'")
			}
		}
		for i, agg := range *aggregators {
			if agg.Kind == kind && agg.ValueColIdx == valueIdx {
				return ir.AggregatorOutputRef{AggIdx: i, IsKey: false}, nil
			}
		}
		idx := len(*aggregators)
		*aggregators = append(*aggregators, ir.Aggregator{Kind: kind, ValueColIdx: valueIdx})
		return ir.AggregatorOutputRef{AggIdx: idx, IsKey: false}, nil
	case ast.Literal:
		return ir.Literal{Kind: n.Kind, Text: n.Text}, nil
	case ast.BinaryExpr:
		left, err := a.resolveAggregateExpr(n.Left, aggregators)
		if err != nil {
			return nil, err
		}
		right, err := a.resolveAggregateExpr(n.Right, aggregators)
		if err != nil {
			return nil, err
		}
		return ir.BinaryExpr{Op: n.Op, Left: left, Right: right}, nil
	case ast.UnaryExpr:
		inner, err := a.resolveAggregateExpr(n.Expr, aggregators)
		if err != nil {
			return nil, err
		}
		return ir.UnaryExpr{Op: n.Op, Expr: inner}, nil
	case ast.Paren:
		return a.resolveAggregateExpr(n.Expr, aggregators)
	default:
		return nil, diag.New(diag.RuleStructural, "unsupported expression in having")
	}
}
