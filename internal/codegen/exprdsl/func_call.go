package exprdsl

import "strings"

// FuncCall is a generic escape hatch for a runtime helper call, e.g. a
// connector-provided scalar function referenced from a filter predicate.
// The transformation builder never needs this for aggregates (those lower
// to ir.Aggregator, not a call expression); internal/emitter uses it to
// render a join column as an indexed <alias>.Field(<idx>) call.
type FuncCall struct {
	Name string
	Args []Expr
}

func (f FuncCall) Render() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.Render()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}
