// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pxd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pdiddy/pxdgen/internal/decl"
	"github.com/pdiddy/pxdgen/pkg/types"
)

const (
	indentUnit = "    "
	lineWidth  = 79
)

// Stats counts what happened to each declaration during one render.
type Stats struct {
	// Emitted counts declarations written as Cython statements.
	Emitted int `json:"emitted" yaml:"emitted"`

	// Skipped counts recognized declarations intentionally left out:
	// unstable constants, redundant typedefs, empty enums, macro functions.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Unsupported counts declarations using constructs with no .pxd spelling.
	Unsupported int `json:"unsupported" yaml:"unsupported"`

	// Malformed counts declarations missing required fields.
	Malformed int `json:"malformed" yaml:"malformed"`

	// Unknown counts declarations of unrecognized kinds.
	Unknown int `json:"unknown" yaml:"unknown"`

	// BitfieldsDropped counts struct members whose bit width was ignored.
	BitfieldsDropped int `json:"bitfields_dropped" yaml:"bitfields_dropped"`
}

// NotEmitted returns the number of declarations that produced no statement.
func (s Stats) NotEmitted() int {
	return s.Skipped + s.Unsupported + s.Malformed + s.Unknown
}

// Renderer writes a decoded declaration list as a Cython .pxd file. A
// Renderer holds per-run state and must not be reused across documents.
type Renderer struct {
	cfg    types.ConvertConfig
	logger *slog.Logger
	stats  Stats

	// anonMembers holds the enumerators of the anonymous enum rendered just
	// before the current declaration. ctypesgen repeats each of them as a
	// constant right after the enum.
	anonMembers map[string]bool
	seenUnknown map[string]bool
}

// NewRenderer returns a Renderer for cfg. A nil logger uses slog.Default.
func NewRenderer(cfg types.ConvertConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		cfg:         cfg,
		logger:      logger,
		seenUnknown: map[string]bool{},
	}
}

// Render writes doc to w. With Strict set, the first malformed declaration
// aborts the render before anything is written.
func (r *Renderer) Render(w io.Writer, doc *decl.Document) (Stats, error) {
	var body bytes.Buffer
	statements := 0

	for i, it := range doc.Items {
		if it.Err != nil {
			if err := r.reject(&body, it.Err); err != nil {
				return r.stats, err
			}
			continue
		}

		if !isConstantLike(it.Decl) {
			r.anonMembers = nil
		}

		lines, err := r.renderDecl(it.Decl)
		if err != nil {
			var ue *unsupportedError
			if !errors.As(err, &ue) {
				return r.stats, err
			}
			derr := decl.Unsupported(i, it.Decl.DeclKind(), it.Decl.DeclName(), "%s", ue.msg)
			if err := r.reject(&body, derr); err != nil {
				return r.stats, err
			}
			continue
		}
		if len(lines) == 0 {
			continue
		}

		for _, l := range lines {
			r.put(&body, 1, l)
			if !strings.HasPrefix(strings.TrimSpace(l), "#") {
				statements++
			}
		}
		body.WriteString("\n")
	}

	var out bytes.Buffer
	if !r.cfg.NoIncludes {
		r.writePrelude(&out)
	}

	header := r.cfg.ImportFrom
	if header == "" {
		header = "*"
	}
	nogil := " nogil"
	if r.cfg.GIL {
		nogil = ""
	}
	r.put(&out, 0, "cdef extern from "+header+nogil+":")
	if statements == 0 {
		r.put(&out, 1, "pass")
	}
	body.WriteTo(&out)

	if _, err := out.WriteTo(w); err != nil {
		return r.stats, fmt.Errorf("writing pxd: %w", err)
	}
	return r.stats, nil
}

// reject records a declaration that produced no statement. Malformed
// declarations are fatal in strict mode.
func (r *Renderer) reject(body *bytes.Buffer, derr *decl.DeclarationError) error {
	r.anonMembers = nil
	if errors.Is(derr, decl.ErrMalformed) {
		if r.cfg.Strict {
			return derr
		}
		r.stats.Malformed++
	} else {
		r.stats.Unsupported++
	}
	r.logger.Warn("skipping declaration",
		"index", derr.Index, "kind", derr.Kind, "name", derr.Name, "reason", derr.Reason)
	if r.cfg.Annotate {
		r.put(body, 1, "# "+oneLine(derr.Error()))
		body.WriteString("\n")
	}
	return nil
}

// skip records a recognized declaration left out on purpose.
func (r *Renderer) skip(d types.Declaration, reason string) []string {
	r.stats.Skipped++
	r.logger.Info("omitting declaration", "kind", d.DeclKind(), "name", d.DeclName(), "reason", reason)
	if r.cfg.Annotate {
		return []string{fmt.Sprintf("# omitted %s %s: %s", d.DeclKind(), d.DeclName(), reason)}
	}
	return nil
}

// renderDecl returns the lines for d, relative to the extern block. Nested
// lines carry their own indentation.
func (r *Renderer) renderDecl(d types.Declaration) ([]string, error) {
	switch d := d.(type) {
	case *types.Function:
		return r.renderFunction(d)
	case *types.Struct:
		return r.renderStruct(d)
	case *types.Typedef:
		return r.renderTypedef(d)
	case *types.Enum:
		return r.renderEnum(d)
	case *types.Constant:
		return r.renderConstant(d)
	case *types.Macro:
		return r.renderMacro(d)
	case *types.MacroFunction:
		r.stats.Skipped++
		r.logger.Warn("unconvertible macro function", "name", d.Name, "body", d.Body)
		return []string{fmt.Sprintf("# unconvertible macro function: %s(%s)", d.Name, strings.Join(d.Args, ", "))}, nil
	case *types.Variable:
		return r.renderVariable(d)
	default:
		r.stats.Unknown++
		kind := string(d.DeclKind())
		if !r.seenUnknown[kind] {
			r.seenUnknown[kind] = true
			r.logger.Debug("ignoring unknown declaration kind", "kind", kind)
		}
		return nil, nil
	}
}

func (r *Renderer) renderFunction(d *types.Function) ([]string, error) {
	s, err := r.declare(&types.FuncType{Return: d.Return, Params: d.Params, Variadic: d.Variadic}, cname(d.Name))
	if err != nil {
		return nil, err
	}
	r.stats.Emitted++
	return []string{s}, nil
}

func (r *Renderer) renderStruct(d *types.Struct) ([]string, error) {
	variety := "struct"
	if d.IsUnion {
		variety = "union"
	}
	head := "cdef " + variety + " " + cname(d.Name)

	if d.Fields == nil {
		r.stats.Emitted++
		return []string{head + "  # forward declaration"}, nil
	}

	lines := []string{head + ":"}
	dropped := r.stats.BitfieldsDropped
	for _, f := range d.Fields {
		s, err := r.declare(f.Type, cname(f.Name))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		lines = append(lines, indentUnit+s)
	}
	if len(d.Fields) == 0 {
		lines = append(lines, indentUnit+"pass")
	}
	if n := r.stats.BitfieldsDropped - dropped; n > 0 {
		r.logger.Warn("bitfield widths ignored", variety, d.Name, "fields", n)
	}
	r.stats.Emitted++
	return lines, nil
}

func (r *Renderer) renderTypedef(d *types.Typedef) ([]string, error) {
	if ref, ok := d.Type.(*types.StructRef); ok && ref.Tag == d.Name {
		return r.skip(d, "redundant typedef of "+ref.Variety+" "+ref.Tag), nil
	}
	if ref, ok := d.Type.(*types.EnumRef); ok && ref.Tag == d.Name {
		return r.skip(d, "redundant typedef of enum "+ref.Tag), nil
	}
	if n, ok := d.Type.(*types.Named); ok {
		if words := strings.Fields(n.Name); len(words) == 2 && words[1] == d.Name {
			switch words[0] {
			case "struct", "union", "enum":
				return r.skip(d, "redundant typedef of "+words[0]+" "+d.Name), nil
			}
		}
	}
	s, err := r.declare(d.Type, cname(d.Name))
	if err != nil {
		return nil, err
	}
	r.stats.Emitted++
	return []string{"ctypedef " + s}, nil
}

func (r *Renderer) renderEnum(d *types.Enum) ([]string, error) {
	anonymous := d.Name == "" || strings.HasPrefix(d.Name, "anon_")

	head := "cdef enum " + cname(d.Name) + ":"
	if anonymous {
		head = "cdef enum:"
	}
	lines := []string{head}
	members := map[string]bool{}
	for _, e := range d.Enumerators {
		line := indentUnit + cname(e.Name)
		if e.Value != nil {
			v, err := r.expr(e.Value)
			if err != nil {
				r.logger.Warn("dropping enumerator", "enum", d.Name, "name", e.Name, "reason", err)
				continue
			}
			line += " = (" + v + ")"
		}
		lines = append(lines, line)
		members[e.Name] = true
	}
	if len(lines) == 1 {
		return r.skip(d, "no enumerators"), nil
	}
	if anonymous {
		r.anonMembers = members
	}
	r.stats.Emitted++
	return lines, nil
}

func (r *Renderer) renderConstant(d *types.Constant) ([]string, error) {
	if r.anonMembers[d.Name] {
		return r.skip(d, "declared by the preceding anonymous enum"), nil
	}
	if d.Type != nil {
		s, err := r.declare(d.Type, cname(d.Name))
		if err != nil {
			return nil, err
		}
		r.stats.Emitted++
		return []string{s}, nil
	}
	return r.renderValue(d, d.Name, d.Value, "constant")
}

func (r *Renderer) renderMacro(d *types.Macro) ([]string, error) {
	if d.Value == "" || d.Value == d.Name {
		return r.skip(d, "no value"), nil
	}
	return r.renderValue(d, d.Name, d.Value, "macro")
}

// renderValue writes an untyped constant as a member of an anonymous enum
// when its value is a stable integer expression.
func (r *Renderer) renderValue(d types.Declaration, name, value, origin string) ([]string, error) {
	text, kind := classifyConstant(value)
	switch kind {
	case constUnstable:
		return r.skip(d, fmt.Sprintf("value %q has no stable integer type", value)), nil
	case constExpr:
		text = "(" + text + ")"
	}
	r.stats.Emitted++
	return []string{
		"cdef enum:  # " + origin + ": " + oneLine(value),
		indentUnit + cname(name) + " = " + text,
	}, nil
}

func (r *Renderer) renderVariable(d *types.Variable) ([]string, error) {
	s, err := r.declare(d.Type, cname(d.Name))
	if err != nil {
		return nil, err
	}
	r.stats.Emitted++
	return []string{s}, nil
}

// writePrelude cimports the stddef and stdint names so declarations can use
// them unqualified.
func (r *Renderer) writePrelude(out *bytes.Buffer) {
	width := lineWidth - len(indentUnit)*(r.cfg.IndentLevel+1)
	for _, group := range []struct {
		module string
		names  []string
	}{
		{"stddef", stddefTypes},
		{"stdint", stdintTypes},
	} {
		r.put(out, 0, "from libc."+group.module+" cimport (")
		for _, line := range wrapWords(strings.Join(group.names, ", "), width) {
			r.put(out, 1, line)
		}
		r.put(out, 0, ")")
	}
	out.WriteString("\n\n")
}

// put writes one line at the configured base indentation plus level.
func (r *Renderer) put(buf *bytes.Buffer, level int, line string) {
	buf.WriteString(strings.Repeat(indentUnit, r.cfg.IndentLevel+level))
	buf.WriteString(line)
	buf.WriteString("\n")
}

// wrapWords greedily fills lines of at most width bytes.
func wrapWords(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, w := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(w) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func isConstantLike(d types.Declaration) bool {
	switch d.(type) {
	case *types.Constant, *types.Macro:
		return true
	}
	return false
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
