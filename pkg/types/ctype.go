// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CType is a C type reference. The set of implementations is closed.
type CType interface {
	ctype()
}

// Simple is a builtin arithmetic or stddef/stdint type. Longs counts the
// "long" qualifiers (1 for long, 2 for long long).
type Simple struct {
	Name   string
	Signed bool
	Longs  int
}

// Named refers to a type by its spelled name: a typedef name, or verbatim C
// type text such as "const char *".
type Named struct {
	Name string
}

// Pointer points at Dest.
type Pointer struct {
	Dest CType
}

// Array is Base[Count]. Count is nil for an unsized array.
type Array struct {
	Base  CType
	Count Expr
}

// StructRef refers to a struct or union by tag. Variety is "struct" or "union".
type StructRef struct {
	Variety string
	Tag     string
}

// EnumRef refers to an enum by tag.
type EnumRef struct {
	Tag string
}

// FuncType is a function type, used behind pointers and in typedefs.
type FuncType struct {
	Return   CType // nil means void
	Params   []Param
	Variadic bool
}

// Special is an extractor-specific pseudo type such as "String".
type Special struct {
	Name string
}

// Bitfield is a struct member of Base type with an explicit bit width.
type Bitfield struct {
	Base  CType
	Width Expr
}

func (*Simple) ctype()    {}
func (*Named) ctype()     {}
func (*Pointer) ctype()   {}
func (*Array) ctype()     {}
func (*StructRef) ctype() {}
func (*EnumRef) ctype()   {}
func (*FuncType) ctype()  {}
func (*Special) ctype()   {}
func (*Bitfield) ctype()  {}
