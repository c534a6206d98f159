package emitter

import (
	"fmt"
	"strconv"

	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/codegen/exprdsl"
	"github.com/pthm/pansqlc/internal/diag"
	"github.com/pthm/pansqlc/internal/ir"
)

// accessorFor names the reader's typed getter for tag, e.g. TagInt32 ->
// "GetInt32". The dictionary's tag names and the emitted accessor names
// share one vocabulary by construction (see internal/types' doc comment).
func accessorFor(t interface{ String() string }) string {
	return "Get" + t.String()
}

// lowerExpr renders an ir.Expr filter/having tree to the emitted
// program's expression syntax. readerVar names the row reader in scope
// for ColumnRef leaves; aggVar resolves an aggregator index to its local
// variable name for AggregatorOutputRef leaves (nil when lowering a
// filter, which never references an aggregator).
func lowerExpr(e ir.Expr, readerVar string, aggVar func(idx int) string) (exprdsl.Expr, error) {
	switch v := e.(type) {
	case ir.ColumnRef:
		return exprdsl.ReaderCol{ReaderVar: readerVar, Idx: v.Idx, Accessor: accessorFor(v.Tag)}, nil

	case ir.AggregatorOutputRef:
		if aggVar == nil {
			return nil, diag.New(diag.RuleStructural, "aggregator reference outside an aggregation")
		}
		return exprdsl.AggregatorOutput{Var: aggVar(v.AggIdx), IsKey: v.IsKey}, nil

	case ir.Literal:
		return lowerLiteral(v), nil

	case ir.UnaryExpr:
		inner, err := lowerExpr(v.Expr, readerVar, aggVar)
		if err != nil {
			return nil, err
		}
		return exprdsl.Not{Expr: inner}, nil

	case ir.BinaryExpr:
		left, err := lowerExpr(v.Left, readerVar, aggVar)
		if err != nil {
			return nil, err
		}
		right, err := lowerExpr(v.Right, readerVar, aggVar)
		if err != nil {
			return nil, err
		}
		return lowerBinary(v.Op, left, right), nil

	default:
		return nil, diag.New(diag.RuleStructural, "unrenderable expression node")
	}
}

func lowerLiteral(l ir.Literal) exprdsl.Expr {
	switch l.Kind {
	case ast.LitString:
		return exprdsl.Lit(l.Text)
	case ast.LitInt:
		n, _ := strconv.ParseInt(l.Text, 10, 64)
		return exprdsl.Int(n)
	case ast.LitDecimal:
		return exprdsl.Decimal(l.Text)
	case ast.LitNull:
		return exprdsl.Null{}
	default:
		return exprdsl.Lit(l.Text)
	}
}

func lowerBinary(op ast.BinaryOp, left, right exprdsl.Expr) exprdsl.Expr {
	switch op {
	case ast.OpEq:
		return exprdsl.Eq{Left: left, Right: right}
	case ast.OpNe:
		return exprdsl.Ne{Left: left, Right: right}
	case ast.OpLt:
		return exprdsl.Lt{Left: left, Right: right}
	case ast.OpLe:
		return exprdsl.Lte{Left: left, Right: right}
	case ast.OpGt:
		return exprdsl.Gt{Left: left, Right: right}
	case ast.OpGe:
		return exprdsl.Gte{Left: left, Right: right}
	case ast.OpAnd:
		return exprdsl.And{Left: left, Right: right}
	case ast.OpOr:
		return exprdsl.Or{Left: left, Right: right}
	case ast.OpAdd:
		return exprdsl.Add{Left: left, Right: right}
	case ast.OpSub:
		return exprdsl.Sub{Left: left, Right: right}
	case ast.OpMul:
		return exprdsl.Mul{Left: left, Right: right}
	case ast.OpDiv:
		return exprdsl.Div{Left: left, Right: right}
	default:
		return exprdsl.Lit(fmt.Sprintf("<unsupported operator %d>", int(op)))
	}
}
