// Package exprdsl is a small expression-rendering DSL for the emitted
// program's filter and having predicates. It models the target runtime's
// row-accessor surface directly (GetInt32(idx), aggregator output
// properties, DBNull) rather than generic expression syntax, the same way
// the teacher's query DSL models its target's concepts directly instead
// of reconstructing generic SQL text.
package exprdsl

import "fmt"

// Expr is implemented by every renderable node.
type Expr interface {
	Render() string
}

// ReaderCol calls the reader's typed accessor for column Idx, e.g.
// reader.GetInt32(2).
type ReaderCol struct {
	ReaderVar string
	Idx       int
	Accessor  string // "GetInt32", "GetString", ...
}

func (c ReaderCol) Render() string {
	return fmt.Sprintf("%s.%s(%d)", c.ReaderVar, c.Accessor, c.Idx)
}

// JoinCol reads a field off the tuple bound by a join probe.
type JoinCol struct {
	TableAlias string
	FieldName  string
}

func (c JoinCol) Render() string {
	return c.TableAlias + "." + c.FieldName
}

// AggregatorOutput reads an aggregator's key or value from the emergent
// post-aggregation tuple, e.g. aggregator__1.Key or aggregator__2.Value.
type AggregatorOutput struct {
	Var   string
	IsKey bool
}

func (a AggregatorOutput) Render() string {
	if a.IsKey {
		return a.Var + ".Key"
	}
	return a.Var + ".Value"
}

// Lit is a string literal (auto-quoted).
type Lit string

func (l Lit) Render() string {
	return `"` + escapeQuotes(string(l)) + `"`
}

func escapeQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Int is an integer literal.
type Int int64

func (i Int) Render() string { return fmt.Sprintf("%d", i) }

// Decimal is a decimal literal, preserved as the original source lexeme
// to avoid precision loss.
type Decimal string

func (d Decimal) Render() string { return string(d) }

// Null is the target runtime's null sentinel.
type Null struct{}

func (Null) Render() string { return "DBNull.Value" }

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

func (p Paren) Render() string { return "(" + p.Expr.Render() + ")" }
