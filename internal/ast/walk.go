package ast

import (
	"fmt"
	"strings"

	"github.com/conneroisu/orbit/internal/token"
)

// Visitor is called for every node in depth-first order. Returning false
// skips the node's children.
type Visitor func(n Node, depth int) bool

// Walk traverses the tree rooted at n.
func Walk(n Node, visit Visitor) {
	walk(n, 0, visit)
}

func walk(n Node, depth int, visit Visitor) {
	if !visit(n, depth) {
		return
	}
	for _, child := range n.Children() {
		walk(child, depth+1, visit)
	}
}

// Clone returns a deep copy of the tree rooted at n.
func Clone(n Node) Node {
	switch n := n.(type) {
	case *Root:
		cp := &Root{}
		cp.children = cloneChildren(n.children)
		return cp
	case *Text:
		cp := *n
		return &cp
	case *Newline:
		cp := *n
		return &cp
	case *PublicComment:
		cp := *n
		return &cp
	case *PrivateComment:
		cp := *n
		return &cp
	case *PrintingExpression:
		cp := *n
		cp.children = cloneChildren(n.children)
		return &cp
	case *ControlExpression:
		cp := *n
		cp.children = cloneChildren(n.children)
		return &cp
	case *Tag:
		cp := *n
		cp.Attributes = append([]token.Attribute(nil), n.Attributes...)
		cp.children = cloneChildren(n.children)
		return &cp
	case *Block:
		cp := *n
		cp.children = cloneChildren(n.children)
		return &cp
	default:
		return n
	}
}

func cloneChildren(children []Node) []Node {
	if children == nil {
		return nil
	}
	out := make([]Node, len(children))
	for i, c := range children {
		out[i] = Clone(c)
	}
	return out
}

// Dump renders the tree as an indented outline, one node per line.
func Dump(n Node) string {
	var b strings.Builder
	Walk(n, func(n Node, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(describe(n))
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

func describe(n Node) string {
	switch n := n.(type) {
	case *Root:
		return "Root"
	case *Text:
		return fmt.Sprintf("Text(%q)", n.Content)
	case *Newline:
		return "Newline"
	case *PublicComment:
		return fmt.Sprintf("PublicComment(%q)", n.Content)
	case *PrivateComment:
		return fmt.Sprintf("PrivateComment(%q)", n.Content)
	case *PrintingExpression:
		return fmt.Sprintf("PrintingExpression(%q)", n.Expression)
	case *ControlExpression:
		return fmt.Sprintf("ControlExpression(%q)", n.Expression)
	case *Tag:
		var attrs []string
		for _, a := range n.Attributes {
			attrs = append(attrs, a.String())
		}
		s := "Tag(" + n.Name
		if len(attrs) > 0 {
			s += " " + strings.Join(attrs, " ")
		}
		if n.SelfClosing {
			s += " /"
		}
		if n.Verbatim {
			s += " $"
		}
		return s + ")"
	case *Block:
		return fmt.Sprintf("Block(%s %q)", n.Name, n.Expression)
	default:
		return TypeName(n)
	}
}
