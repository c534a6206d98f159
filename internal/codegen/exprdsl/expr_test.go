package exprdsl

import "testing"

func TestRenderReaderColAndLiteralComparison(t *testing.T) {
	e := Eq{
		Left:  ReaderCol{ReaderVar: "reader", Idx: 2, Accessor: "GetInt32"},
		Right: Int(1),
	}
	want := "reader.GetInt32(2) == 1"
	if got := e.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderAndOrNot(t *testing.T) {
	expr := And{
		Left:  Eq{Left: Lit("a"), Right: Lit("b")},
		Right: Not{Expr: IsNull{Expr: AggregatorOutput{Var: "aggregator__1", IsKey: false}}},
	}
	want := `"a" == "b" && !(aggregator__1.Value == DBNull.Value)`
	if got := expr.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderLiteralEscaping(t *testing.T) {
	l := Lit(`has "quotes"`)
	want := `"has \"quotes\""`
	if got := l.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderFuncCall(t *testing.T) {
	fc := FuncCall{Name: "Trim", Args: []Expr{JoinCol{TableAlias: "t", FieldName: "Name"}}}
	want := "Trim(t.Name)"
	if got := fc.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderArithmetic(t *testing.T) {
	expr := Add{Left: Int(1), Right: Mul{Left: Int(2), Right: Int(3)}}
	want := "1 + 2 * 3"
	if got := expr.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}
