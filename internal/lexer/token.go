package lexer

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	String
	Int
	Decimal

	// Keywords
	KwLoad
	KwTable
	KwStream
	KwOpen
	KwAs
	KwFor
	KwRead
	KwWrite
	KwWith
	KwFrom
	KwSelect
	KwJoin
	KwOn
	KwWhere
	KwGroup
	KwBy
	KwHaving
	KwInto
	KwMap
	KwTo
	KwSync
	KwOrder
	KwAbort
	KwAnd
	KwOr
	KwNot
	KwNull

	// Operators & punctuation
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Plus
	Minus
	Star
	Slash
	Dot
	Comma
	LParen
	RParen
)

var keywords = map[string]Kind{
	"load":    KwLoad,
	"table":   KwTable,
	"stream":  KwStream,
	"open":    KwOpen,
	"as":      KwAs,
	"for":     KwFor,
	"read":    KwRead,
	"write":   KwWrite,
	"with":    KwWith,
	"from":    KwFrom,
	"select":  KwSelect,
	"join":    KwJoin,
	"on":      KwOn,
	"where":   KwWhere,
	"group":   KwGroup,
	"by":      KwBy,
	"having":  KwHaving,
	"into":    KwInto,
	"map":     KwMap,
	"to":      KwTo,
	"sync":    KwSync,
	"order":   KwOrder,
	"abort":   KwAbort,
	"and":     KwAnd,
	"or":      KwOr,
	"not":     KwNot,
	"null":    KwNull,
}

// Token is one lexical unit: its kind, the literal text it was scanned
// from, and its source position (1-based line and column of its first
// character).
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Col    int
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "identifier"
	case String:
		return "string literal"
	case Int:
		return "integer literal"
	case Decimal:
		return "decimal literal"
	case Eq:
		return "'='"
	case Ne:
		return "'<>'"
	case Lt:
		return "'<'"
	case Le:
		return "'<='"
	case Gt:
		return "'>'"
	case Ge:
		return "'>='"
	case Plus:
		return "'+'"
	case Minus:
		return "'-'"
	case Star:
		return "'*'"
	case Slash:
		return "'/'"
	case Dot:
		return "'.'"
	case Comma:
		return "','"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	default:
		for kw, kind := range keywords {
			if kind == k {
				return "'" + kw + "'"
			}
		}
		return "token"
	}
}
