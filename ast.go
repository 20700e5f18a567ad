// Completion: 100% - expression AST complete
package main

// Expr is a small expression-tree type. The parser does not build it: it
// lowers each expression straight to IR Operands and Assign/If
// instructions, and statements likewise have no AST node, the same
// one-pass shape the teacher's cli.go driver uses for its own pipeline.
type Expr struct {
	// Leaf forms.
	IsConst  bool
	IsIdent  bool
	ConstVal string // decimal text for numeric constants, raw text for strings
	Type     ScalarType
	Ident    string

	// Binary/unary forms.
	Op    AssignOp
	Left  *Expr
	Right *Expr // nil for unary (Negate)
}

func constExpr(val string, t ScalarType) *Expr {
	return &Expr{IsConst: true, ConstVal: val, Type: t}
}

func identExpr(name string, t ScalarType) *Expr {
	return &Expr{IsIdent: true, Ident: name, Type: t}
}
