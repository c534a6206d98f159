package exprdsl

// Comparison operators.

type Eq struct{ Left, Right Expr }

func (e Eq) Render() string { return e.Left.Render() + " == " + e.Right.Render() }

type Ne struct{ Left, Right Expr }

func (n Ne) Render() string { return n.Left.Render() + " != " + n.Right.Render() }

type Lt struct{ Left, Right Expr }

func (l Lt) Render() string { return l.Left.Render() + " < " + l.Right.Render() }

type Gt struct{ Left, Right Expr }

func (g Gt) Render() string { return g.Left.Render() + " > " + g.Right.Render() }

type Lte struct{ Left, Right Expr }

func (l Lte) Render() string { return l.Left.Render() + " <= " + l.Right.Render() }

type Gte struct{ Left, Right Expr }

func (g Gte) Render() string { return g.Left.Render() + " >= " + g.Right.Render() }

// Arithmetic operators.

type Add struct{ Left, Right Expr }

func (a Add) Render() string { return a.Left.Render() + " + " + a.Right.Render() }

type Sub struct{ Left, Right Expr }

func (s Sub) Render() string { return s.Left.Render() + " - " + s.Right.Render() }

type Mul struct{ Left, Right Expr }

func (m Mul) Render() string { return m.Left.Render() + " * " + m.Right.Render() }

type Div struct{ Left, Right Expr }

func (d Div) Render() string { return d.Left.Render() + " / " + d.Right.Render() }

// Logical operators. And/Or take exactly two operands: the grammar never
// produces more than a binary tree (see internal/parser's parseOr/parseAnd
// left-fold), so unlike the teacher's variadic AndExpr/OrExpr there is
// nothing to fold over here.

type And struct{ Left, Right Expr }

func (a And) Render() string { return a.Left.Render() + " && " + a.Right.Render() }

type Or struct{ Left, Right Expr }

func (o Or) Render() string { return o.Left.Render() + " || " + o.Right.Render() }

type Not struct{ Expr Expr }

func (n Not) Render() string { return "!" + Paren{n.Expr}.Render() }

type IsNull struct{ Expr Expr }

func (i IsNull) Render() string { return i.Expr.Render() + " == " + (Null{}).Render() }

type IsNotNull struct{ Expr Expr }

func (i IsNotNull) Render() string { return i.Expr.Render() + " != " + (Null{}).Render() }
