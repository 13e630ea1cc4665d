// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pxd

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/pxdgen/pkg/types"
)

// stddefTypes and stdintTypes are cimported by the prelude, sorted as they
// are printed.
var (
	stddefTypes = []string{"ptrdiff_t", "size_t", "wchar_t"}
	stdintTypes = stdintNames()
)

func stdintNames() []string {
	var names []string
	for _, prefix := range []string{"", "u"} {
		for _, infix := range []string{"", "_least", "_fast"} {
			for _, width := range []string{"8", "16", "32", "64"} {
				names = append(names, prefix+"int"+infix+width+"_t")
			}
		}
		for _, infix := range []string{"ptr", "max"} {
			names = append(names, prefix+"int"+infix+"_t")
		}
	}
	sort.Strings(names)
	return names
}

// simpleTypes are the CtypesSimple names with a direct Cython spelling.
var simpleTypes = func() map[string]bool {
	m := map[string]bool{}
	for _, n := range strings.Fields("int char short void size_t ssize_t float double") {
		m[n] = true
	}
	for _, n := range stddefTypes {
		m[n] = true
	}
	for _, n := range stdintTypes {
		m[n] = true
	}
	return m
}()

// sizedIntegers take an "unsigned" prefix when not signed.
var sizedIntegers = map[string]bool{"char": true, "short": true, "int": true}

// dropWords are C type words with no meaning in a Cython extern block.
var dropWords = map[string]bool{
	"struct": true, "union": true, "enum": true,
	"restrict": true, "__restrict": true, "__restrict__": true,
	"volatile": true, "__extension__": true,
}

// binaryOpSymbols and unaryOpSymbols map extractor operator names to Cython.
var (
	binaryOpSymbols = map[string]string{
		"addition":       "+",
		"bitwise or":     "|",
		"division":       "/",
		"left shift":     "<<",
		"less-than":      "<",
		"multiplication": "*",
		"right shift":    ">>",
		"subtraction":    "-",
	}
	unaryOpSymbols = map[string]string{
		"negation": "-",
	}
)

// unsupportedError marks a construct the renderer cannot express.
type unsupportedError struct {
	msg string
}

func (e *unsupportedError) Error() string { return e.msg }

func unsupported(format string, args ...any) error {
	return &unsupportedError{msg: fmt.Sprintf(format, args...)}
}

// declare renders t as a C declarator around inner, which is a name, an
// abstract declarator, or "".
func (r *Renderer) declare(t types.CType, inner string) (string, error) {
	switch t := t.(type) {
	case nil:
		return joinDeclarator("void", inner), nil
	case *types.Pointer:
		inner = "*" + inner
		switch t.Dest.(type) {
		case *types.Array, *types.FuncType:
			inner = "(" + inner + ")"
		}
		return r.declare(t.Dest, inner)
	case *types.Array:
		count := ""
		if t.Count != nil {
			c, err := r.expr(t.Count)
			if err != nil {
				return "", err
			}
			count = c
		}
		return r.declare(t.Base, inner+"["+count+"]")
	case *types.FuncType:
		params, err := r.params(t.Params, t.Variadic)
		if err != nil {
			return "", err
		}
		return r.declare(t.Return, inner+"("+params+")")
	case *types.Bitfield:
		r.stats.BitfieldsDropped++
		return r.declare(t.Base, inner)
	case *types.Named:
		return namedDeclarator(t.Name, inner)
	default:
		base, err := baseType(t)
		if err != nil {
			return "", err
		}
		return joinDeclarator(base, inner), nil
	}
}

func joinDeclarator(base, inner string) string {
	if inner == "" {
		return base
	}
	return base + " " + inner
}

// baseType spells a non-derived type.
func baseType(t types.CType) (string, error) {
	switch t := t.(type) {
	case *types.Simple:
		if !simpleTypes[t.Name] {
			return "", unsupported("simple type %q", t.Name)
		}
		var b strings.Builder
		if !t.Signed && (sizedIntegers[t.Name] || t.Longs > 0) {
			b.WriteString("unsigned ")
		}
		b.WriteString(strings.Repeat("long ", t.Longs))
		if t.Longs > 0 && t.Name == "int" {
			return strings.TrimSuffix(b.String(), " "), nil
		}
		b.WriteString(t.Name)
		return b.String(), nil
	case *types.Named:
		return spellWords(t.Name)
	case *types.StructRef:
		return t.Tag, nil
	case *types.EnumRef:
		return t.Tag, nil
	case *types.Special:
		if t.Name == "String" {
			return "char*", nil
		}
		return "", unsupported("special type %q", t.Name)
	default:
		return "", unsupported("type %T", t)
	}
}

// abstractPointer matches the "(*)" of a spelled function pointer or
// pointer to array, e.g. "void (*)(int)".
var abstractPointer = regexp.MustCompile(`\(\s*\*\s*\)`)

// namedDeclarator spells verbatim C type text around inner. A single
// abstract "(*)" gets inner spliced into it; any other parenthesized or
// bracketed text is unsupported.
func namedDeclarator(text, inner string) (string, error) {
	if !strings.ContainsAny(text, "()[]") {
		base, err := spellWords(text)
		if err != nil {
			return "", err
		}
		return joinDeclarator(base, inner), nil
	}

	locs := abstractPointer.FindAllStringIndex(text, -1)
	if len(locs) != 1 {
		return "", unsupported("type %q", text)
	}
	prefix := text[:locs[0][0]]
	if strings.ContainsAny(prefix, "()[]") {
		return "", unsupported("type %q", text)
	}
	base, err := spellWords(prefix)
	if err != nil {
		return "", unsupported("type %q", text)
	}

	suffix := strings.TrimSpace(text[locs[0][1]:])
	if len(suffix) < 2 {
		return "", unsupported("type %q", text)
	}
	body := strings.TrimSpace(suffix[1 : len(suffix)-1])
	if strings.ContainsAny(body, "()[]") {
		return "", unsupported("type %q", text)
	}
	switch {
	case suffix[0] == '(' && suffix[len(suffix)-1] == ')':
		var params []string
		if body != "" && body != "void" {
			for _, p := range strings.Split(body, ",") {
				p = strings.TrimSpace(p)
				if p != "..." {
					if p, err = spellWords(p); err != nil {
						return "", unsupported("type %q", text)
					}
				}
				params = append(params, p)
			}
		}
		suffix = "(" + strings.Join(params, ", ") + ")"
	case suffix[0] == '[' && suffix[len(suffix)-1] == ']':
		suffix = "[" + body + "]"
	default:
		return "", unsupported("type %q", text)
	}
	return base + " (*" + inner + ")" + suffix, nil
}

// spellWords drops C-only words from type text and attaches pointer stars
// to the type.
func spellWords(text string) (string, error) {
	words := strings.Fields(strings.ReplaceAll(text, "*", " * "))
	kept := words[:0]
	for _, w := range words {
		if !dropWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 || kept[0] == "*" {
		return "", unsupported("type %q", text)
	}
	return strings.ReplaceAll(strings.Join(kept, " "), " *", "*"), nil
}

// params renders a parameter list. Parameter names that collide with
// Cython keywords get a trailing underscore.
func (r *Renderer) params(ps []types.Param, variadic bool) (string, error) {
	parts := make([]string, 0, len(ps)+1)
	for _, p := range ps {
		name := p.Name
		if isKeyword(name) {
			name += "_"
		}
		s, err := r.declare(p.Type, name)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if variadic {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", "), nil
}

// expr renders a constant expression in Cython syntax.
func (r *Renderer) expr(e types.Expr) (string, error) {
	switch e := e.(type) {
	case *types.Literal:
		text, kind := classifyConstant(e.Text)
		if kind == constUnstable {
			return "", unsupported("constant %q", e.Text)
		}
		return text, nil
	case *types.Ident:
		return e.Name, nil
	case *types.Binary:
		op, ok := binaryOpSymbols[e.Op]
		if !ok {
			return "", unsupported("binary operator %q", e.Op)
		}
		left, err := r.expr(e.Left)
		if err != nil {
			return "", err
		}
		right, err := r.expr(e.Right)
		if err != nil {
			return "", err
		}
		return "((" + left + ") " + op + " (" + right + "))", nil
	case *types.Unary:
		op, ok := unaryOpSymbols[e.Op]
		if !ok {
			return "", unsupported("unary operator %q", e.Op)
		}
		operand, err := r.expr(e.Operand)
		if err != nil {
			return "", err
		}
		return "(" + op + " (" + operand + "))", nil
	case *types.SizeOf:
		t, err := r.declare(e.Type, "")
		if err != nil {
			return "", err
		}
		return "(sizeof(" + t + "))", nil
	case *types.Conditional:
		cond, err := r.expr(e.Cond)
		if err != nil {
			return "", err
		}
		yes, err := r.expr(e.Yes)
		if err != nil {
			return "", err
		}
		no, err := r.expr(e.No)
		if err != nil {
			return "", err
		}
		return "((" + yes + ") if (" + cond + ") else (" + no + "))", nil
	case *types.Cast:
		t, err := r.declare(e.Type, "")
		if err != nil {
			return "", err
		}
		operand, err := r.expr(e.Operand)
		if err != nil {
			return "", err
		}
		return "(<" + t + "> (" + operand + "))", nil
	default:
		return "", unsupported("expression %T", e)
	}
}

// keywords are identifiers Cython cannot use as declared names.
var keywords = func() map[string]bool {
	m := map[string]bool{}
	for _, k := range strings.Fields(`
		False None True and as assert async await break class continue def del
		elif else except finally for from global if import in is lambda nonlocal
		not or pass raise return try while with yield
		api by cdef cimport cpdef ctypedef extern gil include inline nogil print
		public readonly DEF IF ELIF ELSE`) {
		m[k] = true
	}
	return m
}()

func isKeyword(name string) bool { return keywords[name] }

// cname spells a declared name, renaming keywords while keeping the C name
// as a Cython cname string.
func cname(name string) string {
	if isKeyword(name) {
		return name + `_ "` + name + `"`
	}
	return name
}
