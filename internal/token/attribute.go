package token

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AttributeKind says how an attribute value was written.
type AttributeKind int

const (
	// AttrString is a quoted or unquoted literal: class="a".
	AttrString AttributeKind = iota
	// AttrBoolean is a bare name without a value: disabled.
	AttrBoolean
	// AttrExpression is a brace delimited expression: class={x}.
	AttrExpression
	// AttrSplat is a whole attribute map expression: **attrs.
	AttrSplat
)

// String returns the wire name of the kind.
func (k AttributeKind) String() string {
	switch k {
	case AttrString:
		return "string"
	case AttrBoolean:
		return "boolean"
	case AttrExpression:
		return "expression"
	case AttrSplat:
		return "splat"
	default:
		return fmt.Sprintf("attribute_kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k AttributeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DirectivePrefix marks attributes consumed by the compiler.
const DirectivePrefix = ":"

// Attribute is a single attribute of a tag. Splat attributes have no name;
// their Value holds the source text including the leading stars.
type Attribute struct {
	Name  string        `json:"name,omitempty" yaml:"name,omitempty"`
	Kind  AttributeKind `json:"kind" yaml:"kind"`
	Value string        `json:"value,omitempty" yaml:"value,omitempty"`
	Pos   Position      `json:"position" yaml:"position"`
}

// Static reports whether the value is known at compile time.
func (a Attribute) Static() bool {
	return a.Kind == AttrString || a.Kind == AttrBoolean
}

// Dynamic reports whether the value is an expression.
func (a Attribute) Dynamic() bool {
	return a.Kind == AttrExpression
}

// Directive reports whether the attribute is a compiler directive such as :if.
func (a Attribute) Directive() bool {
	return strings.HasPrefix(a.Name, DirectivePrefix)
}

// Splat reports whether the attribute expands an attribute map.
func (a Attribute) Splat() bool {
	return a.Kind == AttrSplat
}

// Bool returns the boolean value; boolean attributes are always true.
func (a Attribute) Bool() bool {
	return a.Kind == AttrBoolean
}

// String renders the attribute as (name, kind, value).
func (a Attribute) String() string {
	if a.Kind == AttrBoolean {
		return fmt.Sprintf("(%s, %s, true)", a.Name, a.Kind)
	}
	name := a.Name
	if a.Kind == AttrSplat {
		name = "nil"
	}
	return fmt.Sprintf("(%s, %s, %q)", name, a.Kind, a.Value)
}

// Tuple returns the (name, kind, value) wire triple. The name is nil for
// splats and the value is true for booleans.
func (a Attribute) Tuple() []any {
	var name any = a.Name
	if a.Kind == AttrSplat {
		name = nil
	}
	var value any = a.Value
	if a.Kind == AttrBoolean {
		value = true
	}
	return []any{name, a.Kind.String(), value}
}

// MarshalJSON encodes the attribute as its wire triple.
func (a Attribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Tuple())
}

// MarshalYAML encodes the attribute as its wire triple.
func (a Attribute) MarshalYAML() (interface{}, error) {
	return a.Tuple(), nil
}
