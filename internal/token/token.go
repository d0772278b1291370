// Package token defines the positioned tokens produced by the lexer and the
// attribute model shared with the syntax tree.
package token

import (
	"fmt"
	"strings"
)

// Kind is the type of a Token.
type Kind int

const (
	Text Kind = iota
	Newline
	TagOpen
	TagClose
	PublicComment
	PrivateComment
	PrintingExpression
	ControlExpression
	BlockOpen
	BlockClose
)

var kindNames = [...]string{
	Text:               "text",
	Newline:            "newline",
	TagOpen:            "tag_open",
	TagClose:           "tag_close",
	PublicComment:      "public_comment",
	PrivateComment:     "private_comment",
	PrintingExpression: "printing_expression",
	ControlExpression:  "control_expression",
	BlockOpen:          "block_open",
	BlockClose:         "block_close",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Position is a 1-based line and column in the source.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// String formats the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Column < q.Column)
}

// Token is a single lexical unit. SelfClosing, Verbatim and Attributes are
// only meaningful on TagOpen tokens; Expression only on BlockOpen tokens.
type Token struct {
	Kind  Kind     `json:"kind" yaml:"kind"`
	Value string   `json:"value,omitempty" yaml:"value,omitempty"`
	Pos   Position `json:"position" yaml:"position"`

	SelfClosing bool        `json:"self_closing,omitempty" yaml:"self_closing,omitempty"`
	Verbatim    bool        `json:"verbatim,omitempty" yaml:"verbatim,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Expression  string      `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// String renders the token in a compact debugging form, e.g.
// tag_open(p, self_closing=false).
func (t Token) String() string {
	var b strings.Builder
	b.WriteString(t.Kind.String())
	b.WriteByte('(')
	switch t.Kind {
	case TagOpen:
		fmt.Fprintf(&b, "%s, self_closing=%t", t.Value, t.SelfClosing)
		if t.Verbatim {
			b.WriteString(", verbatim=true")
		}
		for _, a := range t.Attributes {
			b.WriteString(", ")
			b.WriteString(a.String())
		}
	case BlockOpen:
		fmt.Fprintf(&b, "%s, %q", t.Value, t.Expression)
	case TagClose, BlockClose:
		b.WriteString(t.Value)
	default:
		fmt.Fprintf(&b, "%q", t.Value)
	}
	b.WriteByte(')')
	return b.String()
}
