// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pxd

import (
	"strconv"
	"strings"
)

// constKind classifies the value of a macro or constant.
type constKind int

const (
	constUnstable constKind = iota // not an integer expression; skipped
	constInt                       // a single integer literal
	constIdent                     // a single identifier
	constExpr                      // an integer expression over literals and identifiers
)

type tokKind int

const (
	tokInt tokKind = iota
	tokIdent
	tokSizeof
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
}

// binaryOps and unaryOps are the C operators allowed in a stable constant.
var (
	binaryOps = map[string]bool{
		"+": true, "-": true, "*": true, "/": true, "%": true,
		"&": true, "^": true, "|": true, "<<": true, ">>": true,
	}
	unaryOps = map[string]bool{"+": true, "-": true, "~": true}
)

// classifyConstant decides whether a C constant value can be written as a
// Cython enum value. Integer literals are normalized to decimal, so octal
// and suffixed literals become valid Cython. The returned text is only
// meaningful when the kind is not constUnstable.
func classifyConstant(value string) (string, constKind) {
	toks, ok := lexConstant(value)
	if !ok || len(toks) == 0 {
		return "", constUnstable
	}
	if !wellFormed(toks) {
		return "", constUnstable
	}

	inner := stripParens(toks)
	switch {
	case len(inner) == 1 && inner[0].kind == tokInt:
		return inner[0].text, constInt
	case len(inner) == 2 && inner[0].kind == tokOp && inner[1].kind == tokInt:
		switch inner[0].text {
		case "-":
			if inner[1].text == "0" {
				return "0", constInt
			}
			return "-" + inner[1].text, constInt
		case "+":
			return inner[1].text, constInt
		}
	case len(inner) == 1 && inner[0].kind == tokIdent:
		return inner[0].text, constIdent
	}
	return joinTokens(inner), constExpr
}

func lexConstant(s string) ([]token, bool) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c):
			j := i
			for j < len(s) && (isIdentChar(s[j]) || s[j] == '.') {
				j++
			}
			text, ok := normalizeInt(s[i:j])
			if !ok {
				return nil, false
			}
			toks = append(toks, token{tokInt, text})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			word := s[i:j]
			switch word {
			case "sizeof":
				toks = append(toks, token{tokSizeof, word})
			case "struct", "union", "enum":
				return nil, false
			default:
				if isKeyword(word) {
					return nil, false
				}
				toks = append(toks, token{tokIdent, word})
			}
			i = j
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '<' || c == '>':
			if i+1 >= len(s) || s[i+1] != c {
				return nil, false
			}
			toks = append(toks, token{tokOp, s[i : i+2]})
			i += 2
		case strings.IndexByte("+-*/%&^|~", c) >= 0:
			if i+1 < len(s) && (s[i+1] == c && (c == '&' || c == '|' || c == '+' || c == '-')) {
				return nil, false
			}
			toks = append(toks, token{tokOp, string(c)})
			i++
		default:
			return nil, false
		}
	}
	return toks, true
}

// normalizeInt parses a C integer literal and returns it in decimal.
func normalizeInt(lit string) (string, bool) {
	body := strings.TrimRight(lit, "uUlL")
	if suffix := len(lit) - len(body); suffix > 3 || body == "" {
		return "", false
	}
	base := 10
	switch {
	case strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X"):
		base, body = 16, body[2:]
	case len(body) > 1 && body[0] == '0':
		base, body = 8, body[1:]
	}
	v, err := strconv.ParseUint(body, base, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatUint(v, 10), true
}

// wellFormed checks that tokens alternate between operands and binary
// operators with balanced parentheses. sizeof must be followed by "(".
func wellFormed(toks []token) bool {
	depth := 0
	wantOperand := true
	for i, t := range toks {
		if wantOperand {
			switch {
			case t.kind == tokInt || t.kind == tokIdent:
				wantOperand = false
			case t.kind == tokLParen:
				depth++
			case t.kind == tokSizeof:
				if i+1 >= len(toks) || toks[i+1].kind != tokLParen {
					return false
				}
			case t.kind == tokOp && unaryOps[t.text]:
			default:
				return false
			}
			continue
		}
		switch {
		case t.kind == tokRParen:
			if depth == 0 {
				return false
			}
			depth--
		case t.kind == tokOp && binaryOps[t.text]:
			wantOperand = true
		default:
			return false
		}
	}
	return depth == 0 && !wantOperand
}

// stripParens removes parentheses enclosing the whole expression.
func stripParens(toks []token) []token {
	for len(toks) >= 2 && toks[0].kind == tokLParen && toks[len(toks)-1].kind == tokRParen {
		depth := 0
		enclosing := true
		for i, t := range toks {
			switch t.kind {
			case tokLParen:
				depth++
			case tokRParen:
				depth--
			}
			if depth == 0 && i < len(toks)-1 {
				enclosing = false
				break
			}
		}
		if !enclosing {
			break
		}
		toks = toks[1 : len(toks)-1]
	}
	return toks
}

func joinTokens(toks []token) string {
	var b strings.Builder
	prefix := true // at expression start or after an operator or "("
	for _, t := range toks {
		switch {
		case t.kind == tokRParen:
			b.WriteString(")")
			prefix = false
			continue
		case t.kind == tokOp && !prefix:
			b.WriteString(" " + t.text + " ")
			prefix = true
			continue
		}
		b.WriteString(t.text)
		prefix = t.kind == tokOp || t.kind == tokLParen || t.kind == tokSizeof
	}
	return b.String()
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isIdentChar(c byte) bool  { return isIdentStart(c) || isDigit(c) }
