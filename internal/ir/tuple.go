package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conneroisu/orbit/internal/ast"
)

// Tuple converts n to the nested tagged-tuple wire shape, e.g.
//
//	["multi", ["static", "Hello, "], ["escape", true, ["dynamic", "name"]]]
//
// Tag-carrying nodes encode the tag as [name, attributes, self_closing].
func Tuple(n Node) []any {
	switch n := n.(type) {
	case nil:
		return nil
	case *Multi:
		out := make([]any, 0, len(n.Nodes)+1)
		out = append(out, "multi")
		for _, child := range n.Nodes {
			out = append(out, Tuple(child))
		}
		return out
	case *Static:
		return []any{"static", n.Text}
	case *Newline:
		return []any{"newline"}
	case *Escape:
		return []any{"escape", n.Escape, Tuple(n.Value)}
	case *Dynamic:
		return []any{"dynamic", n.Code}
	case *Code:
		return []any{"code", n.Code}
	case *CodeBlock:
		return []any{"code-block", n.Code, Tuple(n.Body)}
	case *Block:
		return []any{"block", n.Temp, n.Code, Tuple(n.Body)}
	case *Capture:
		return []any{"capture", n.Temp, Tuple(n.Body)}
	case *If:
		if n.Else == nil {
			return []any{"if", n.Cond, Tuple(n.Then)}
		}
		return []any{"if", n.Cond, Tuple(n.Then), Tuple(n.Else)}
	case *For:
		return []any{"for", n.Expr, Tuple(n.Body)}
	case *Comment:
		return []any{"html-comment", Tuple(n.Body)}
	case *HTMLTag:
		out := []any{"html-tag", n.Name, Tuple(n.Attrs)}
		if n.Content != nil {
			out = append(out, Tuple(n.Content))
		}
		return out
	case *HTMLAttrs:
		if n == nil {
			return []any{"html-attrs"}
		}
		out := make([]any, 0, len(n.Attrs)+1)
		out = append(out, "html-attrs")
		for _, attr := range n.Attrs {
			out = append(out, Tuple(attr))
		}
		return out
	case *HTMLAttr:
		return []any{"html-attr", n.Name, Tuple(n.Value)}
	case *Component:
		return []any{"component", tagTuple(n.Tag), Tuple(n.Content)}
	case *Slot:
		return []any{"slot", tagTuple(n.Tag), Tuple(n.Content)}
	case *DynamicTag:
		return []any{"dynamic-tag", tagTuple(n.Tag), Tuple(n.Content)}
	case *Raise:
		return []any{"raise", n.Kind, n.Message, n.Line}
	default:
		return []any{fmt.Sprintf("unknown(%T)", n)}
	}
}

func tagTuple(tag *ast.Tag) []any {
	if tag == nil {
		return nil
	}
	attrs := make([]any, len(tag.Attributes))
	for i, a := range tag.Attributes {
		attrs[i] = a.Tuple()
	}
	return []any{tag.Name, attrs, tag.SelfClosing}
}

// Format renders n as an s-expression, the compact form used by the CLI
// and in test failure output:
//
//	(multi (static "Hello, ") (escape true (dynamic "name")))
func Format(n Node) string {
	var b strings.Builder
	writeSexp(&b, Tuple(n))
	return b.String()
}

func writeSexp(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		b.WriteString("nil")
	case []any:
		if v == nil {
			b.WriteString("nil")
			return
		}
		b.WriteByte('(')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(' ')
			}
			if i == 0 {
				if head, ok := item.(string); ok {
					b.WriteString(head)
					continue
				}
			}
			writeSexp(b, item)
		}
		b.WriteByte(')')
	case string:
		b.WriteString(strconv.Quote(v))
	default:
		fmt.Fprint(b, v)
	}
}
