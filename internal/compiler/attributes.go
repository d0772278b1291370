package compiler

import (
	"strings"

	"github.com/conneroisu/orbit/internal/ir"
	"github.com/conneroisu/orbit/internal/token"
)

const (
	interpolationOpen  = "{{"
	interpolationClose = "}}"
)

func lowerAttributes(attrs []token.Attribute) *ir.HTMLAttrs {
	out := &ir.HTMLAttrs{Attrs: make([]ir.Node, 0, len(attrs))}
	for _, a := range attrs {
		out.Attrs = append(out.Attrs, lowerAttribute(a))
	}
	return out
}

func lowerAttribute(a token.Attribute) ir.Node {
	switch a.Kind {
	case token.AttrBoolean:
		return &ir.HTMLAttr{Name: a.Name, Value: ir.NewMulti()}
	case token.AttrExpression:
		return &ir.HTMLAttr{Name: a.Name, Value: ir.EscapedDynamic(a.Value)}
	default:
		if strings.Contains(a.Value, interpolationOpen) {
			return &ir.HTMLAttr{Name: a.Name, Value: interpolate(a.Value)}
		}
		return &ir.HTMLAttr{Name: a.Name, Value: &ir.Static{Text: a.Value}}
	}
}

// interpolate splits a quoted value such as "btn {{ kind }}" into static
// text and escaped expressions. Braces inside an expression nest; an
// unterminated expression is kept as text.
func interpolate(value string) *ir.Multi {
	out := ir.NewMulti()
	for value != "" {
		start := strings.Index(value, interpolationOpen)
		if start < 0 {
			out.Nodes = append(out.Nodes, &ir.Static{Text: value})
			break
		}

		end := closingBraces(value, start+len(interpolationOpen))
		if end < 0 {
			out.Nodes = append(out.Nodes, &ir.Static{Text: value})
			break
		}

		if start > 0 {
			out.Nodes = append(out.Nodes, &ir.Static{Text: value[:start]})
		}
		expr := strings.TrimSpace(value[start+len(interpolationOpen) : end])
		out.Nodes = append(out.Nodes, ir.EscapedDynamic(expr))
		value = value[end+len(interpolationClose):]
	}
	return out
}

// closingBraces returns the index of the "}}" that closes an expression
// starting at from, or -1.
func closingBraces(s string, from int) int {
	depth := 0
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				if strings.HasPrefix(s[i:], interpolationClose) {
					return i
				}
				continue
			}
			depth--
		}
	}
	return -1
}
