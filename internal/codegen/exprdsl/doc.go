// Package exprdsl is a type-safe DSL for rendering the expressions a
// Transformer's filter and having predicates compile to in the emitted
// program.
//
// # Expression types
//
//	ReaderCol{ReaderVar: "reader", Idx: 2, Accessor: "GetInt32"}  // reader.GetInt32(2)
//	JoinCol{TableAlias: "t", FieldName: "Id"}                     // t.Id
//	AggregatorOutput{Var: "aggregator__1", IsKey: true}           // aggregator__1.Key
//	Lit("abc")                                                    // "abc"
//	Int(1)                                                        // 1
//	Null{}                                                        // DBNull.Value
//
// # Operators
//
//	Eq{Left, Right}   // left == right
//	And{Left, Right}  // left && right
//	Not{Expr: e}      // !(e)
//	IsNull{Expr: e}   // e == DBNull.Value
//
// Every node renders with Render(), never SQL(): the target is the
// emitted program's own expression syntax, not a query language.
package exprdsl
