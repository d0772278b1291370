// Package ast defines the syntax tree produced by the parser.
//
// Node is a closed sum type: the unexported marker method keeps variants to
// this package, so consumers switch over the concrete types exhaustively.
// The tree is strictly tree-shaped; Root owns every node.
package ast

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conneroisu/orbit/internal/token"
)

// Node is a syntax tree node.
type Node interface {
	Pos() token.Position
	Children() []Node
	node()
}

// Container is a node that owns children.
type Container interface {
	Node
	AppendChild(child Node)
}

type parent struct {
	children []Node
}

// Children returns the ordered child list.
func (p *parent) Children() []Node { return p.children }

// AppendChild adds child at the end of the child list.
func (p *parent) AppendChild(child Node) { p.children = append(p.children, child) }

type leaf struct{}

func (leaf) Children() []Node { return nil }

// Root is the top of every tree.
type Root struct {
	parent
}

// Text is literal markup.
type Text struct {
	leaf
	Content  string
	Position token.Position
}

// Newline is a line break kept apart from text for line bookkeeping.
type Newline struct {
	leaf
	Position token.Position
}

// PublicComment is an HTML comment that is rendered.
type PublicComment struct {
	leaf
	Content  string
	Position token.Position
}

// PrivateComment is a template comment that produces no output.
type PrivateComment struct {
	leaf
	Content  string
	Position token.Position
}

// PrintingExpression outputs the escaped value of Expression. When the
// expression opens a block, the children form the block body.
type PrintingExpression struct {
	parent
	Expression string
	Position   token.Position
}

// ControlExpression runs Expression for its side effects only.
type ControlExpression struct {
	parent
	Expression string
	Position   token.Position
}

// Tag is an HTML element, a component or a component slot.
type Tag struct {
	parent
	Name        string
	Attributes  []token.Attribute
	SelfClosing bool
	Verbatim    bool
	Position    token.Position
}

// Block is a {#name expression}...{/name} construct.
type Block struct {
	parent
	Name       string
	Expression string
	Position   token.Position
}

func (*Root) node()               {}
func (*Text) node()               {}
func (*Newline) node()            {}
func (*PublicComment) node()      {}
func (*PrivateComment) node()     {}
func (*PrintingExpression) node() {}
func (*ControlExpression) node()  {}
func (*Tag) node()                {}
func (*Block) node()              {}

// Pos returns the position of the first character of the template.
func (*Root) Pos() token.Position { return token.Position{Line: 1, Column: 1} }

func (n *Text) Pos() token.Position               { return n.Position }
func (n *Newline) Pos() token.Position            { return n.Position }
func (n *PublicComment) Pos() token.Position      { return n.Position }
func (n *PrivateComment) Pos() token.Position     { return n.Position }
func (n *PrintingExpression) Pos() token.Position { return n.Position }
func (n *ControlExpression) Pos() token.Position  { return n.Position }
func (n *Tag) Pos() token.Position                { return n.Position }
func (n *Block) Pos() token.Position              { return n.Position }

// NewTag builds a tag node from a tag_open token.
func NewTag(tok token.Token) *Tag {
	return &Tag{
		Name:        tok.Value,
		Attributes:  tok.Attributes,
		SelfClosing: tok.SelfClosing,
		Verbatim:    tok.Verbatim,
		Position:    tok.Pos,
	}
}

// SlotSeparator separates a component name from a slot name.
const SlotSeparator = ":"

// NamespaceSeparator separates the segments of a nested component path.
const NamespaceSeparator = "."

func startsUpper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// HTMLTag reports whether the tag is a plain HTML element.
func (n *Tag) HTMLTag() bool {
	r, _ := utf8.DecodeRuneInString(n.Name)
	return unicode.IsLower(r)
}

// ComponentTag reports whether the tag renders a component.
func (n *Tag) ComponentTag() bool {
	return startsUpper(n.Name) && !strings.Contains(n.Name, SlotSeparator)
}

// ComponentSlotTag reports whether the tag fills a slot of the enclosing
// component.
func (n *Tag) ComponentSlotTag() bool {
	return startsUpper(n.Name) && strings.Contains(n.Name, SlotSeparator)
}

// IsSelfClosing reports whether the tag has no closing tag.
func (n *Tag) IsSelfClosing() bool { return n.SelfClosing }

// IsVerbatim reports whether the tag body is raw text.
func (n *Tag) IsVerbatim() bool { return n.Verbatim }

// Path splits a dotted component name into its namespace segments.
func (n *Tag) Path() []string {
	name := n.Name
	if i := strings.Index(name, SlotSeparator); i >= 0 {
		name = name[:i]
	}
	return strings.Split(name, NamespaceSeparator)
}

// ComponentName returns the component part of a slot tag name, or the
// whole name for other tags.
func (n *Tag) ComponentName() string {
	if i := strings.Index(n.Name, SlotSeparator); i >= 0 {
		return n.Name[:i]
	}
	return n.Name
}

// SlotName returns the slot part of a slot tag name.
func (n *Tag) SlotName() string {
	if i := strings.Index(n.Name, SlotSeparator); i >= 0 {
		return n.Name[i+1:]
	}
	return ""
}

// Directives returns the directive attributes in source order.
func (n *Tag) Directives() []token.Attribute {
	var out []token.Attribute
	for _, a := range n.Attributes {
		if a.Directive() {
			out = append(out, a)
		}
	}
	return out
}

// HasDirectives reports whether any attribute is a directive.
func (n *Tag) HasDirectives() bool {
	for _, a := range n.Attributes {
		if a.Directive() {
			return true
		}
	}
	return false
}

// Directive returns the first directive named name, e.g. ":if".
func (n *Tag) Directive(name string) (token.Attribute, bool) {
	for _, a := range n.Attributes {
		if a.Directive() && a.Name == name {
			return a, true
		}
	}
	return token.Attribute{}, false
}

// Splats returns the splat attributes in source order.
func (n *Tag) Splats() []token.Attribute {
	var out []token.Attribute
	for _, a := range n.Attributes {
		if a.Splat() {
			out = append(out, a)
		}
	}
	return out
}

// HasSplats reports whether any attribute is a splat.
func (n *Tag) HasSplats() bool {
	for _, a := range n.Attributes {
		if a.Splat() {
			return true
		}
	}
	return false
}

// WithoutAttribute returns a shallow copy of the tag whose attribute list
// lacks the first attribute named name. The receiver is left untouched.
func (n *Tag) WithoutAttribute(name string) *Tag {
	cp := *n
	cp.Attributes = make([]token.Attribute, 0, len(n.Attributes))
	removed := false
	for _, a := range n.Attributes {
		if !removed && a.Name == name && !a.Splat() {
			removed = true
			continue
		}
		cp.Attributes = append(cp.Attributes, a)
	}
	cp.children = append([]Node(nil), n.children...)
	return &cp
}

var (
	blockOpeningPattern = regexp.MustCompile(`^(if|unless)\b|\bdo\s*(\|[^|]*\|)?$`)
	blockEndingPattern  = regexp.MustCompile(`^end$`)
)

// IsBlockOpening reports whether an expression starts a block that must be
// closed by an end expression: it begins with if/unless or ends with a do
// marker and optional block parameters.
func IsBlockOpening(expression string) bool {
	return blockOpeningPattern.MatchString(strings.TrimSpace(expression))
}

// IsBlockEnding reports whether an expression closes a block.
func IsBlockEnding(expression string) bool {
	return blockEndingPattern.MatchString(strings.TrimSpace(expression))
}

// IsBlockOpening reports whether the expression opens a block.
func (n *PrintingExpression) IsBlockOpening() bool { return IsBlockOpening(n.Expression) }

// IsBlockEnding reports whether the expression closes a block.
func (n *PrintingExpression) IsBlockEnding() bool { return IsBlockEnding(n.Expression) }

// IsBlockOpening reports whether the expression opens a block.
func (n *ControlExpression) IsBlockOpening() bool { return IsBlockOpening(n.Expression) }

// IsBlockEnding reports whether the expression closes a block.
func (n *ControlExpression) IsBlockEnding() bool { return IsBlockEnding(n.Expression) }

// TypeName returns the variant name of n, used in diagnostics.
func TypeName(n Node) string {
	switch n.(type) {
	case *Root:
		return "Root"
	case *Text:
		return "Text"
	case *Newline:
		return "Newline"
	case *PublicComment:
		return "PublicComment"
	case *PrivateComment:
		return "PrivateComment"
	case *PrintingExpression:
		return "PrintingExpression"
	case *ControlExpression:
		return "ControlExpression"
	case *Tag:
		return "Tag"
	case *Block:
		return "Block"
	default:
		return "Unknown"
	}
}
