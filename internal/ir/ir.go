// Package ir defines the intermediate representation produced by the
// compiler: a tree of instructions that a code generator turns into
// rendering code. The IR never refers back to the source text; every
// expression it carries is the literal code written in the template.
package ir

import (
	"github.com/conneroisu/orbit/internal/ast"
)

// Node is an IR instruction.
type Node interface {
	irNode()
}

// Multi is a sequence of instructions.
type Multi struct {
	Nodes []Node
}

// Static outputs literal text.
type Static struct {
	Text string
}

// Newline outputs a line break. It is kept apart from Static so generated
// code stays aligned with the source lines.
type Newline struct{}

// Escape outputs Value, HTML escaped when Escape is set.
type Escape struct {
	Escape bool
	Value  Node
}

// Dynamic evaluates Code and outputs the result.
type Dynamic struct {
	Code string
}

// Code runs Code without output.
type Code struct {
	Code string
}

// CodeBlock runs Code with Body as its block.
type CodeBlock struct {
	Code string
	Body Node
}

// Block assigns the value of Code, called with Body as its block, to the
// temporary Temp.
type Block struct {
	Temp string
	Code string
	Body Node
}

// Capture renders Body into a separate buffer and stores the result in
// Temp.
type Capture struct {
	Temp string
	Body Node
}

// If renders Then when Cond holds and Else, if any, otherwise.
type If struct {
	Cond string
	Then Node
	Else Node
}

// For renders Body once per iteration of Expr.
type For struct {
	Expr string
	Body Node
}

// Comment outputs Body wrapped in an HTML comment.
type Comment struct {
	Body Node
}

// HTMLTag renders an element. Content is nil for self-closing elements.
type HTMLTag struct {
	Name    string
	Attrs   *HTMLAttrs
	Content Node
}

// HTMLAttrs is an ordered attribute list.
type HTMLAttrs struct {
	Attrs []Node
}

// HTMLAttr is a single attribute. An empty Multi value renders the bare
// name.
type HTMLAttr struct {
	Name  string
	Value Node
}

// Component renders the component named by Tag with Content as its body.
// Tag is the directive-free copy of the source tag; name resolution is left
// to the generator.
type Component struct {
	Tag     *ast.Tag
	Content Node
}

// Slot fills the slot named by Tag of the enclosing component.
type Slot struct {
	Tag     *ast.Tag
	Content Node
}

// DynamicTag renders a tag carrying splat attributes. Whether it is an
// element or a component is decided at render time.
type DynamicTag struct {
	Tag     *ast.Tag
	Content Node
}

// Raise fails rendering with Message. Kind names the stage that detected
// the problem and Line its source line.
type Raise struct {
	Kind    string
	Message string
	Line    int
}

func (*Multi) irNode()      {}
func (*Static) irNode()     {}
func (*Newline) irNode()    {}
func (*Escape) irNode()     {}
func (*Dynamic) irNode()    {}
func (*Code) irNode()       {}
func (*CodeBlock) irNode()  {}
func (*Block) irNode()      {}
func (*Capture) irNode()    {}
func (*If) irNode()         {}
func (*For) irNode()        {}
func (*Comment) irNode()    {}
func (*HTMLTag) irNode()    {}
func (*HTMLAttrs) irNode()  {}
func (*HTMLAttr) irNode()   {}
func (*Component) irNode()  {}
func (*Slot) irNode()       {}
func (*DynamicTag) irNode() {}
func (*Raise) irNode()      {}

// NewMulti builds a Multi from nodes.
func NewMulti(nodes ...Node) *Multi {
	return &Multi{Nodes: nodes}
}

// EscapedDynamic is the common escape(true, dynamic(code)) pair.
func EscapedDynamic(code string) *Escape {
	return &Escape{Escape: true, Value: &Dynamic{Code: code}}
}

// Append adds nodes to m, flattening nested Multi nodes.
func (m *Multi) Append(nodes ...Node) {
	for _, n := range nodes {
		if inner, ok := n.(*Multi); ok {
			m.Nodes = append(m.Nodes, inner.Nodes...)
			continue
		}
		m.Nodes = append(m.Nodes, n)
	}
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range children(n) {
		Walk(child, fn)
	}
}

func children(n Node) []Node {
	switch n := n.(type) {
	case *Multi:
		return n.Nodes
	case *Escape:
		return []Node{n.Value}
	case *CodeBlock:
		return []Node{n.Body}
	case *Block:
		return []Node{n.Body}
	case *Capture:
		return []Node{n.Body}
	case *If:
		return []Node{n.Then, n.Else}
	case *For:
		return []Node{n.Body}
	case *Comment:
		return []Node{n.Body}
	case *HTMLTag:
		if n.Attrs == nil {
			return []Node{n.Content}
		}
		return []Node{n.Attrs, n.Content}
	case *HTMLAttrs:
		return n.Attrs
	case *HTMLAttr:
		return []Node{n.Value}
	case *Component:
		return []Node{n.Content}
	case *Slot:
		return []Node{n.Content}
	case *DynamicTag:
		return []Node{n.Content}
	default:
		return nil
	}
}
