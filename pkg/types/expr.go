// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Expr is a constant expression as reported by the extractor, used for enum
// values and array sizes. The set of implementations is closed.
type Expr interface {
	expr()
}

// Literal is a constant spelled as text (e.g. "42", "0x10").
type Literal struct {
	Text string
}

// Ident references another constant or enumerator.
type Ident struct {
	Name string
}

// Binary applies Op to Left and Right. Op is the extractor's operator name
// (e.g. "addition", "left shift").
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

// Unary applies Op to Operand (e.g. "negation").
type Unary struct {
	Op      string
	Operand Expr
}

// SizeOf is sizeof(Type).
type SizeOf struct {
	Type CType
}

// Conditional is Cond ? Yes : No.
type Conditional struct {
	Cond Expr
	Yes  Expr
	No   Expr
}

// Cast is (Type) Operand.
type Cast struct {
	Type    CType
	Operand Expr
}

func (*Literal) expr()     {}
func (*Ident) expr()       {}
func (*Binary) expr()      {}
func (*Unary) expr()       {}
func (*SizeOf) expr()      {}
func (*Conditional) expr() {}
func (*Cast) expr()        {}
