// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the declaration model shared by the decoder and the
// renderer, plus the configuration structs for each pxdgen stage.
package types

// Kind names a declaration kind as it appears in extractor output.
type Kind string

const (
	KindFunction      Kind = "function"
	KindStruct        Kind = "struct"
	KindUnion         Kind = "union"
	KindTypedef       Kind = "typedef"
	KindEnum          Kind = "enum"
	KindConstant      Kind = "constant"
	KindMacro         Kind = "macro"
	KindMacroFunction Kind = "macro_function"
	KindVariable      Kind = "variable"
)

// Declaration is one top-level record from the extractor. The set of
// implementations is closed; renderers switch over the concrete types.
type Declaration interface {
	// DeclName returns the declared identifier, or "" when there is none.
	DeclName() string
	// DeclKind returns the kind the declaration was decoded from.
	DeclKind() Kind

	declaration()
}

// Param is a function parameter. Name may be empty.
type Param struct {
	Name string
	Type CType
}

// Function is a C function prototype.
type Function struct {
	Name     string
	Return   CType // nil means void
	Params   []Param
	Variadic bool
}

// Field is a struct or union member.
type Field struct {
	Name string
	Type CType
}

// Struct is a struct or union definition. Fields is nil for a forward
// declaration and empty (non-nil) for a definition without members.
type Struct struct {
	Name    string
	IsUnion bool
	Fields  []Field
}

// Typedef maps an underlying type to an alias name.
type Typedef struct {
	Name string
	Type CType
}

// Enumerator is one enum member. Value is nil when implicit.
type Enumerator struct {
	Name  string
	Value Expr
}

// Enum is an enum definition.
type Enum struct {
	Name        string
	Enumerators []Enumerator
}

// Constant is a named constant value. Type is nil when the extractor did
// not report one.
type Constant struct {
	Name  string
	Type  CType
	Value string
}

// Macro is an object-like preprocessor macro.
type Macro struct {
	Name  string
	Value string
}

// MacroFunction is a function-like preprocessor macro. It cannot be
// expressed in a .pxd file.
type MacroFunction struct {
	Name string
	Args []string
	Body string
}

// Variable is an extern variable.
type Variable struct {
	Name string
	Type CType
}

// Unknown is any declaration kind outside the recognized set.
type Unknown struct {
	Kind string
	Name string
}

func (d *Function) DeclName() string      { return d.Name }
func (d *Struct) DeclName() string        { return d.Name }
func (d *Typedef) DeclName() string       { return d.Name }
func (d *Enum) DeclName() string          { return d.Name }
func (d *Constant) DeclName() string      { return d.Name }
func (d *Macro) DeclName() string         { return d.Name }
func (d *MacroFunction) DeclName() string { return d.Name }
func (d *Variable) DeclName() string      { return d.Name }
func (d *Unknown) DeclName() string       { return d.Name }

func (d *Function) DeclKind() Kind { return KindFunction }
func (d *Struct) DeclKind() Kind {
	if d.IsUnion {
		return KindUnion
	}
	return KindStruct
}
func (d *Typedef) DeclKind() Kind       { return KindTypedef }
func (d *Enum) DeclKind() Kind          { return KindEnum }
func (d *Constant) DeclKind() Kind      { return KindConstant }
func (d *Macro) DeclKind() Kind         { return KindMacro }
func (d *MacroFunction) DeclKind() Kind { return KindMacroFunction }
func (d *Variable) DeclKind() Kind      { return KindVariable }
func (d *Unknown) DeclKind() Kind       { return Kind(d.Kind) }

func (*Function) declaration()      {}
func (*Struct) declaration()        {}
func (*Typedef) declaration()       {}
func (*Enum) declaration()          {}
func (*Constant) declaration()      {}
func (*Macro) declaration()         {}
func (*MacroFunction) declaration() {}
func (*Variable) declaration()      {}
func (*Unknown) declaration()       {}
