// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decl

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/pxdgen/pkg/types"
)

// nodeError describes a type or expression node that could not be decoded.
// Unsupported nodes are well-formed but have no model equivalent.
type nodeError struct {
	unsupported bool
	msg         string
}

func (e *nodeError) Error() string { return e.msg }

func malformedf(format string, args ...any) error {
	return &nodeError{msg: fmt.Sprintf(format, args...)}
}

func unsupportedf(format string, args ...any) error {
	return &nodeError{unsupported: true, msg: fmt.Sprintf(format, args...)}
}

// node unmarshals a Klass-tagged object.
func node(raw json.RawMessage) (record, string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return record{}, "", malformedf("expected an object, got %s", abbreviate(raw))
	}
	r := record{fields: fields}
	klass := r.str("Klass")
	if klass == "" {
		return record{}, "", malformedf("node has no Klass")
	}
	return r, klass, nil
}

// decodeType decodes a C type given either as type text or as a ctypesgen
// type node.
func decodeType(raw json.RawMessage) (types.CType, error) {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			return nil, malformedf("empty type")
		}
		return &types.Named{Name: text}, nil
	}

	r, klass, err := node(raw)
	if err != nil {
		return nil, err
	}

	switch klass {
	case "CtypesSimple":
		name := r.str("name")
		if name == "" {
			return nil, malformedf("CtypesSimple without name")
		}
		signed := true
		if r.has("signed") {
			signed = r.boolean("signed")
		}
		return &types.Simple{Name: name, Signed: signed, Longs: r.integer("longs")}, nil
	case "CtypesTypedef":
		name := r.str("name")
		if name == "" {
			return nil, malformedf("CtypesTypedef without name")
		}
		return &types.Named{Name: name}, nil
	case "CtypesPointer":
		dest, ok := r.raw("destination")
		if !ok {
			return nil, malformedf("CtypesPointer without destination")
		}
		t, err := decodeType(dest)
		if err != nil {
			return nil, err
		}
		return &types.Pointer{Dest: t}, nil
	case "CtypesArray":
		base, ok := r.raw("base")
		if !ok {
			return nil, malformedf("CtypesArray without base")
		}
		bt, err := decodeType(base)
		if err != nil {
			return nil, err
		}
		arr := &types.Array{Base: bt}
		if count, ok := r.raw("count"); ok {
			if arr.Count, err = decodeExpr(count); err != nil {
				return nil, err
			}
		}
		return arr, nil
	case "CtypesStruct":
		tag, variety := r.str("tag"), r.str("variety")
		if tag == "" {
			return nil, malformedf("CtypesStruct without tag")
		}
		if variety != "struct" && variety != "union" {
			return nil, malformedf("CtypesStruct with variety %q", variety)
		}
		return &types.StructRef{Variety: variety, Tag: tag}, nil
	case "CtypesEnum":
		tag := r.str("tag")
		if tag == "" {
			return nil, malformedf("CtypesEnum without tag")
		}
		return &types.EnumRef{Tag: tag}, nil
	case "CtypesFunction":
		fn, err := decodeFunction(r)
		if err != nil {
			return nil, err
		}
		return fn, nil
	case "CtypesSpecial":
		name := r.str("name")
		if name == "" {
			return nil, malformedf("CtypesSpecial without name")
		}
		return &types.Special{Name: name}, nil
	case "CtypesBitfield":
		base, ok := r.raw("base")
		if !ok {
			return nil, malformedf("CtypesBitfield without base")
		}
		bt, err := decodeType(base)
		if err != nil {
			return nil, err
		}
		bf := &types.Bitfield{Base: bt}
		if w, ok := r.raw("bitfield"); ok {
			if bf.Width, err = decodeExpr(w); err != nil {
				return nil, err
			}
		}
		return bf, nil
	default:
		return nil, unsupportedf("type Klass %q", klass)
	}
}

// decodeExpr decodes a constant expression given as a number, as text, or
// as a ctypesgen expression node.
func decodeExpr(raw json.RawMessage) (types.Expr, error) {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, malformedf("empty expression")
		}
		return &types.Literal{Text: text}, nil
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return &types.Literal{Text: n.String()}, nil
	}

	r, klass, err := node(raw)
	if err != nil {
		return nil, err
	}

	switch klass {
	case "ConstantExpressionNode":
		v, err := scalarText(r, "value")
		if err != nil {
			return nil, err
		}
		if v == "" {
			return nil, malformedf("ConstantExpressionNode without value")
		}
		return &types.Literal{Text: v}, nil
	case "IdentifierExpressionNode":
		name := r.str("name")
		if name == "" {
			return nil, malformedf("IdentifierExpressionNode without name")
		}
		return &types.Ident{Name: name}, nil
	case "BinaryExpressionNode":
		op := r.str("name")
		if op == "" {
			return nil, malformedf("BinaryExpressionNode without operator")
		}
		left, err := childExpr(r, "left")
		if err != nil {
			return nil, err
		}
		right, err := childExpr(r, "right")
		if err != nil {
			return nil, err
		}
		return &types.Binary{Op: op, Left: left, Right: right}, nil
	case "UnaryExpressionNode":
		op := r.str("name")
		if op == "" {
			return nil, malformedf("UnaryExpressionNode without operator")
		}
		child, err := childExpr(r, "child")
		if err != nil {
			return nil, err
		}
		return &types.Unary{Op: op, Operand: child}, nil
	case "SizeOfExpressionNode":
		child, ok := r.raw("child")
		if !ok {
			return nil, malformedf("SizeOfExpressionNode without child")
		}
		t, err := decodeType(child)
		if err != nil {
			return nil, err
		}
		return &types.SizeOf{Type: t}, nil
	case "ConditionalExpressionNode":
		cond, err := childExpr(r, "cond")
		if err != nil {
			return nil, err
		}
		yes, err := childExpr(r, "yes")
		if err != nil {
			return nil, err
		}
		no, err := childExpr(r, "no")
		if err != nil {
			return nil, err
		}
		return &types.Conditional{Cond: cond, Yes: yes, No: no}, nil
	case "TypeCastExpressionNode":
		ct, ok := r.raw("ctype")
		if !ok {
			return nil, malformedf("TypeCastExpressionNode without ctype")
		}
		t, err := decodeType(ct)
		if err != nil {
			return nil, err
		}
		base, err := childExpr(r, "base")
		if err != nil {
			return nil, err
		}
		return &types.Cast{Type: t, Operand: base}, nil
	default:
		return nil, unsupportedf("expression Klass %q", klass)
	}
}

func childExpr(r record, key string) (types.Expr, error) {
	raw, ok := r.raw(key)
	if !ok {
		return nil, malformedf("expression node without %s", key)
	}
	return decodeExpr(raw)
}

func abbreviate(raw json.RawMessage) string {
	s := string(raw)
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return s
}
