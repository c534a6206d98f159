// Package ir defines the Transformer IR and Program IR from the data
// model (§3): the lowered form the transformation builder
// (internal/transform) produces from each resolved select, and that the
// linker (internal/linker) assembles into a whole-program plan for the
// emitter (internal/emitter) to render. IR nodes are built once and not
// mutated by later passes, with one exception: the network pass
// (internal/netpass) rewrites a paired Network OpenEndpoint's ConnString
// in place.
package ir

import (
	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/types"
)

// Expr is the IR's predicate/value expression tree, used for filter and
// having. It mirrors internal/ast's Expr shape but its leaves reference
// resolved reader-column ordinals and aggregator outputs instead of
// unresolved column names, since name resolution has already happened by
// the time a Transformer is built.
type Expr interface {
	exprNode()
}

// ColumnRef references the reader column at Idx (0-based, in reader
// declaration order).
type ColumnRef struct {
	Idx      int
	Tag      types.TypeTag
	Nullable bool
}

func (ColumnRef) exprNode() {}

// AggregatorOutputRef references an aggregator's emergent key or value,
// legal only inside a Having expression.
type AggregatorOutputRef struct {
	AggIdx int
	IsKey  bool
}

func (AggregatorOutputRef) exprNode() {}

// Literal is a constant operand, carried through from the AST literal
// that produced it.
type Literal struct {
	Kind ast.LiteralKind
	Text string
}

func (Literal) exprNode() {}

// BinaryExpr reuses ast.BinaryOp: the operator enumeration is generic
// (comparison, boolean, arithmetic), not AST-specific, so the IR and the
// parser share it rather than duplicating the constant set.
type BinaryExpr struct {
	Op    ast.BinaryOp
	Left  Expr
	Right Expr
}

func (BinaryExpr) exprNode() {}

// UnaryExpr is a unary operation (currently only boolean NOT).
type UnaryExpr struct {
	Op   ast.UnaryOp
	Expr Expr
}

func (UnaryExpr) exprNode() {}

// Slot is implemented by every projection slot variant a Transformer may
// emit: ReaderColumnSlot, ConstLiteralSlot, JoinColumnSlot,
// AggregatorOutputSlot.
type Slot interface {
	slotNode()
}

// ReaderColumnSlot projects a column straight from the streaming input at
// the given reader ordinal.
type ReaderColumnSlot struct {
	Idx      int
	Tag      types.TypeTag
	Nullable bool
}

func (ReaderColumnSlot) slotNode() {}

// ConstLiteralSlot projects a literal value, hoisted out of the row loop
// (§4.4: "ConstLiteral assignment to the row buffer occurs exactly once
// before the loop").
type ConstLiteralSlot struct {
	Kind ast.LiteralKind
	Text string
}

func (ConstLiteralSlot) slotNode() {}

// JoinColumnSlot projects a column from the table bound by the
// transformer's Join, once the probe has succeeded.
type JoinColumnSlot struct {
	TableAlias string
	FieldIdx   int
	Tag        types.TypeTag
	Nullable   bool
}

func (JoinColumnSlot) slotNode() {}

// AggregatorOutputSlot projects an aggregator's key or value column in an
// aggregating transformer.
type AggregatorOutputSlot struct {
	AggIdx   int
	IsKey    bool
	Tag      types.TypeTag
	Nullable bool
}

func (AggregatorOutputSlot) slotNode() {}

// ProbePolicy governs what a Join does when its probe column misses the
// table index. InnerSkipIfMissing is the only policy the grammar can
// currently express (§9 Open Question: no left-outer syntax exists).
type ProbePolicy int

const (
	ProbeInnerSkipIfMissing ProbePolicy = iota
)

// Join is a single unique-index probe against a Table-declared input.
type Join struct {
	TableAlias     string
	TableStream    string
	ProbeColumnIdx int
	Policy         ProbePolicy
}

// AggregatorKind enumerates the supported streaming aggregate functions.
type AggregatorKind int

const (
	AggMax AggregatorKind = iota
	AggMin
	AggSum
	AggCount
	AggAvg
)

func (k AggregatorKind) String() string {
	switch k {
	case AggMax:
		return "Max"
	case AggMin:
		return "Min"
	case AggSum:
		return "Sum"
	case AggCount:
		return "Count"
	case AggAvg:
		return "Avg"
	default:
		return "Unknown"
	}
}

// Aggregator is one accumulator in an Aggregation plan, numbered in
// declaration order (§4.4 "aggregators are numbered in declaration
// order"). ValueColIdx is -1 for count(*), which has no value column.
type Aggregator struct {
	Kind        AggregatorKind
	KeyColIdx   int
	ValueColIdx int
}

// Aggregation is the group-by plan for a Transformer: an ordered
// aggregator list sharing a group key, plus an optional post-aggregation
// filter over the emergent tuple.
type Aggregation struct {
	Aggregators []Aggregator
	Having      Expr
}

// Transformer is the per-select lowered form (§3, §4.4): a row producer
// compiled from one select statement, or a table-bootstrap transformer
// that loads its input into memory for later join access and yields no
// rows (IsTableBootstrap).
type Transformer struct {
	InputStream  string
	OutputStream string
	OutputArity  int

	Slots       []Slot
	Filter      Expr
	Join        *Join
	Aggregation *Aggregation

	// ConstHoist lists slot indices whose value is invariant per
	// invocation and is therefore initialized once before the row loop.
	ConstHoist []int

	IsTableBootstrap bool
}

// NameMap is one stream-rename registration: src dict/stream to dst
// dict/stream, with the field-level renames from an explicit Map
// statement (empty for auto-mapped or select-implied maps).
type NameMap struct {
	SrcDict    string
	SrcStream  string
	DstDict    string
	DstStream  string
	FieldMap   []ast.FieldRename
	Explicit   bool
	AutoMapped bool
}

// OpenEndpoint is one resolved Open statement, carried through to the
// emitter for connector-registry wiring and the connectors manifest.
type OpenEndpoint struct {
	Name       string
	Connector  string
	Direction  ast.Direction
	ConnString string
}

// SyncEdge is the single reader-to-writer transfer a script declares.
type SyncEdge struct {
	ReaderName string
	WriterName string
}

// Program is the whole-script IR the linker hands to the emitter: every
// transformer, every name map (explicit, select-implied, and
// auto-mapped), every open endpoint, and the one sync edge.
type Program struct {
	Transformers []Transformer
	NameMaps     []NameMap
	Opens        []OpenEndpoint
	Sync         SyncEdge
}
