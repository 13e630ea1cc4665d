// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decl decodes the JSON output of a header-to-JSON extractor into
// the declaration model in pkg/types.
//
// Two input shapes are accepted. ctypesgen emits a top-level list whose
// elements carry a "type" discriminator and nested "Klass" type nodes. The
// simplified shape is an object with a "declarations" list whose elements
// carry a "kind" discriminator and spell C types as strings. Both may be
// mixed freely at the element level.
package decl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pdiddy/pxdgen/pkg/types"
)

// listKeys are the object keys searched, in order, for the declaration list.
var listKeys = []string{"declarations", "definitions"}

// Item is one decoded list element. Exactly one of Decl and Err is set.
type Item struct {
	Decl types.Declaration
	Err  *DeclarationError
}

// Document is a decoded declaration list in input order.
type Document struct {
	Items []Item
}

// Declarations returns the successfully decoded declarations in order.
func (d *Document) Declarations() []types.Declaration {
	out := make([]types.Declaration, 0, len(d.Items))
	for _, it := range d.Items {
		if it.Decl != nil {
			out = append(out, it.Decl)
		}
	}
	return out
}

// Problems returns the per-declaration errors in order.
func (d *Document) Problems() []*DeclarationError {
	var out []*DeclarationError
	for _, it := range d.Items {
		if it.Err != nil {
			out = append(out, it.Err)
		}
	}
	return out
}

// Decode parses data and decodes every element of its declaration list.
// It returns a *ParseError for invalid JSON and a *SchemaError when no
// declaration list is present. Problems with individual declarations do not
// fail the decode; they are recorded on the returned Document.
func Decode(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)

	var top json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ParseError{Err: err}
	}

	raws, err := declarationList(top)
	if err != nil {
		return nil, err
	}

	doc := &Document{Items: make([]Item, 0, len(raws))}
	for i, raw := range raws {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, &SchemaError{Reason: fmt.Sprintf("declaration %d is not an object", i)}
		}
		d, derr := decodeDeclaration(record{index: i, fields: fields})
		doc.Items = append(doc.Items, Item{Decl: d, Err: derr})
	}
	return doc, nil
}

func declarationList(top json.RawMessage) ([]json.RawMessage, error) {
	var list []json.RawMessage
	switch top[0] {
	case '[':
		if err := json.Unmarshal(top, &list); err != nil {
			return nil, &SchemaError{Reason: err.Error()}
		}
		return list, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(top, &obj); err != nil {
			return nil, &SchemaError{Reason: err.Error()}
		}
		for _, key := range listKeys {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			if isNull(raw) || raw[0] != '[' {
				return nil, &SchemaError{Reason: fmt.Sprintf("%q is not a list", key)}
			}
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, &SchemaError{Reason: err.Error()}
			}
			return list, nil
		}
		return nil, &SchemaError{Reason: fmt.Sprintf("object has none of the keys %q", listKeys)}
	default:
		return nil, &SchemaError{Reason: "top-level value must be a list or an object"}
	}
}

// record is one declaration object with helpers for optional field access.
type record struct {
	index  int
	fields map[string]json.RawMessage
}

// raw returns the first present, non-null field among keys.
func (r record) raw(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := r.fields[k]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

// has reports whether any of keys is present, even as null.
func (r record) has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := r.fields[k]; ok {
			return true
		}
	}
	return false
}

// str returns the first of keys holding a JSON string.
func (r record) str(keys ...string) string {
	for _, k := range keys {
		v, ok := r.fields[k]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(v, &s) == nil {
			return s
		}
	}
	return ""
}

func (r record) boolean(key string) bool {
	var b bool
	if v, ok := r.fields[key]; ok {
		_ = json.Unmarshal(v, &b)
	}
	return b
}

func (r record) integer(key string) int {
	var n int
	if v, ok := r.fields[key]; ok {
		_ = json.Unmarshal(v, &n)
	}
	return n
}

// kindAndTypeKeys returns the declaration kind and the keys that may hold
// the declaration's C type. With a "kind" discriminator, "type" is a C type;
// otherwise "type" is the ctypesgen discriminator.
func (r record) kindAndTypeKeys() (string, []string) {
	if k := r.str("kind"); k != "" {
		return k, []string{"type", "ctype"}
	}
	return r.str("type"), []string{"ctype"}
}

func decodeDeclaration(r record) (types.Declaration, *DeclarationError) {
	kind, typeKeys := r.kindAndTypeKeys()
	name := r.str("name")

	fail := func(err error) *DeclarationError {
		var ne *nodeError
		if errors.As(err, &ne) && ne.unsupported {
			return Unsupported(r.index, types.Kind(kind), name, "%s", ne.msg)
		}
		return Malformed(r.index, types.Kind(kind), name, "%v", err)
	}

	switch types.Kind(kind) {
	case "":
		return nil, Malformed(r.index, "", name, "missing kind")
	case types.KindFunction:
		if name == "" {
			return nil, Malformed(r.index, types.KindFunction, "", "missing name")
		}
		fn, err := decodeFunction(r)
		if err != nil {
			return nil, fail(err)
		}
		return &types.Function{Name: name, Return: fn.Return, Params: fn.Params, Variadic: fn.Variadic}, nil
	case types.KindStruct, types.KindUnion:
		if name == "" {
			return nil, Malformed(r.index, types.Kind(kind), "", "missing name")
		}
		fields, err := decodeFields(r)
		if err != nil {
			return nil, fail(err)
		}
		return &types.Struct{Name: name, IsUnion: kind == string(types.KindUnion), Fields: fields}, nil
	case types.KindTypedef:
		if name == "" {
			return nil, Malformed(r.index, types.KindTypedef, "", "missing name")
		}
		raw, ok := r.raw(typeKeys...)
		if !ok {
			return nil, Malformed(r.index, types.KindTypedef, name, "missing underlying type")
		}
		t, err := decodeType(raw)
		if err != nil {
			return nil, fail(err)
		}
		return &types.Typedef{Name: name, Type: t}, nil
	case types.KindEnum:
		enums, err := decodeEnumerators(r)
		if err != nil {
			return nil, fail(err)
		}
		return &types.Enum{Name: name, Enumerators: enums}, nil
	case types.KindConstant:
		if name == "" {
			return nil, Malformed(r.index, types.KindConstant, "", "missing name")
		}
		c := &types.Constant{Name: name}
		if raw, ok := r.raw(typeKeys...); ok {
			t, err := decodeType(raw)
			if err != nil {
				return nil, fail(err)
			}
			c.Type = t
		}
		v, err := scalarText(r, "value")
		if err != nil {
			return nil, fail(err)
		}
		c.Value = v
		return c, nil
	case types.KindMacro:
		if name == "" {
			return nil, Malformed(r.index, types.KindMacro, "", "missing name")
		}
		v, err := scalarText(r, "value")
		if err != nil {
			return nil, fail(err)
		}
		return &types.Macro{Name: name, Value: v}, nil
	case types.KindMacroFunction:
		if name == "" {
			return nil, Malformed(r.index, types.KindMacroFunction, "", "missing name")
		}
		var args []string
		if raw, ok := r.raw("args", "params"); ok {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, Malformed(r.index, types.KindMacroFunction, name, "args is not a list of strings")
			}
		}
		return &types.MacroFunction{Name: name, Args: args, Body: r.str("body")}, nil
	case types.KindVariable:
		if name == "" {
			return nil, Malformed(r.index, types.KindVariable, "", "missing name")
		}
		raw, ok := r.raw(typeKeys...)
		if !ok {
			return nil, Malformed(r.index, types.KindVariable, name, "missing type")
		}
		t, err := decodeType(raw)
		if err != nil {
			return nil, fail(err)
		}
		return &types.Variable{Name: name, Type: t}, nil
	default:
		return &types.Unknown{Kind: kind, Name: name}, nil
	}
}

func decodeFunction(r record) (*types.FuncType, error) {
	fn := &types.FuncType{Variadic: r.boolean("variadic")}

	if raw, ok := r.raw("return_type", "return", "restype"); ok {
		t, err := decodeType(raw)
		if err != nil {
			return nil, fmt.Errorf("return type: %w", err)
		}
		fn.Return = t
	}

	raw, ok := r.raw("params", "args", "argtypes")
	if !ok {
		return fn, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformedf("parameter list is not a list")
	}
	for i, item := range items {
		p, err := decodeParam(item)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		fn.Params = append(fn.Params, p)
	}
	return fn, nil
}

// decodeParam accepts a type string, a type node, or a {name, type} object.
func decodeParam(raw json.RawMessage) (types.Param, error) {
	if raw[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return types.Param{}, malformedf("%v", err)
		}
		if _, isNode := fields["Klass"]; !isNode {
			pr := record{fields: fields}
			t, ok := pr.raw("type", "ctype")
			if !ok {
				return types.Param{}, malformedf("missing type")
			}
			ct, err := decodeType(t)
			if err != nil {
				return types.Param{}, err
			}
			return types.Param{Name: pr.str("name"), Type: ct}, nil
		}
	}
	ct, err := decodeType(raw)
	if err != nil {
		return types.Param{}, err
	}
	return types.Param{Type: ct}, nil
}

func decodeFields(r record) ([]types.Field, error) {
	raw, ok := r.raw("fields", "members")
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformedf("fields is not a list")
	}
	fields := make([]types.Field, 0, len(items))
	for i, item := range items {
		var f map[string]json.RawMessage
		if err := json.Unmarshal(item, &f); err != nil || f == nil {
			return nil, malformedf("field %d is not an object", i)
		}
		fr := record{fields: f}
		name := fr.str("name")
		if name == "" {
			return nil, malformedf("field %d has no name", i)
		}
		t, ok := fr.raw("type", "ctype")
		if !ok {
			return nil, malformedf("field %s has no type", name)
		}
		ct, err := decodeType(t)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, types.Field{Name: name, Type: ct})
	}
	return fields, nil
}

func decodeEnumerators(r record) ([]types.Enumerator, error) {
	raw, ok := r.raw("fields", "values", "enumerators")
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformedf("enumerator list is not a list")
	}
	out := make([]types.Enumerator, 0, len(items))
	for i, item := range items {
		var name string
		if json.Unmarshal(item, &name) == nil {
			if name == "" {
				return nil, malformedf("enumerator %d has no name", i)
			}
			out = append(out, types.Enumerator{Name: name})
			continue
		}
		var f map[string]json.RawMessage
		if err := json.Unmarshal(item, &f); err != nil || f == nil {
			return nil, malformedf("enumerator %d is neither a string nor an object", i)
		}
		er := record{fields: f}
		e := types.Enumerator{Name: er.str("name")}
		if e.Name == "" {
			return nil, malformedf("enumerator %d has no name", i)
		}
		if v, ok := er.raw("value", "ctype"); ok {
			x, err := decodeExpr(v)
			if err != nil {
				return nil, fmt.Errorf("enumerator %s: %w", e.Name, err)
			}
			e.Value = x
		}
		out = append(out, e)
	}
	return out, nil
}

// scalarText returns a string or number field as text, "" when absent.
func scalarText(r record, key string) (string, error) {
	raw, ok := r.raw(key)
	if !ok {
		return "", nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, nil
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String(), nil
	}
	return "", malformedf("%s is neither a string nor a number", key)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
