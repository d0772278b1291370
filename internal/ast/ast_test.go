package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/orbit/internal/token"
)

func TestTagClassification(t *testing.T) {
	tests := []struct {
		name      string
		html      bool
		component bool
		slot      bool
	}{
		{"div", true, false, false},
		{"my-element", true, false, false},
		{"Card", false, true, false},
		{"UI.Card", false, true, false},
		{"Card:header", false, false, true},
		{"UI.Card:footer", false, false, true},
		{"", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := &Tag{Name: tt.name}
			assert.Equal(t, tt.html, tag.HTMLTag())
			assert.Equal(t, tt.component, tag.ComponentTag())
			assert.Equal(t, tt.slot, tag.ComponentSlotTag())
		})
	}
}

func TestTagNameParts(t *testing.T) {
	tag := &Tag{Name: "UI.Card:header"}
	assert.Equal(t, []string{"UI", "Card"}, tag.Path())
	assert.Equal(t, "UI.Card", tag.ComponentName())
	assert.Equal(t, "header", tag.SlotName())

	plain := &Tag{Name: "Card"}
	assert.Equal(t, []string{"Card"}, plain.Path())
	assert.Equal(t, "Card", plain.ComponentName())
	assert.Empty(t, plain.SlotName())
}

func TestNewTag(t *testing.T) {
	tok := token.Token{
		Kind:        token.TagOpen,
		Value:       "pre",
		Pos:         token.Position{Line: 3, Column: 2},
		SelfClosing: true,
		Verbatim:    true,
		Attributes:  []token.Attribute{{Name: "id", Kind: token.AttrString, Value: "x"}},
	}

	tag := NewTag(tok)
	assert.Equal(t, "pre", tag.Name)
	assert.True(t, tag.IsSelfClosing())
	assert.True(t, tag.IsVerbatim())
	assert.Equal(t, tok.Pos, tag.Pos())
	assert.Len(t, tag.Attributes, 1)
}

func TestDirectivesAndSplats(t *testing.T) {
	tag := &Tag{
		Name: "li",
		Attributes: []token.Attribute{
			{Name: "class", Kind: token.AttrString, Value: "item"},
			{Name: ":for", Kind: token.AttrExpression, Value: "item in items"},
			{Name: ":if", Kind: token.AttrExpression, Value: "item.visible"},
			{Kind: token.AttrSplat, Value: "**extra"},
		},
	}

	assert.True(t, tag.HasDirectives())
	assert.True(t, tag.HasSplats())
	assert.Len(t, tag.Directives(), 2)
	assert.Len(t, tag.Splats(), 1)

	cond, ok := tag.Directive(":if")
	require.True(t, ok)
	assert.Equal(t, "item.visible", cond.Value)

	_, ok = tag.Directive(":with")
	assert.False(t, ok)
}

func TestWithoutAttributeDoesNotMutate(t *testing.T) {
	tag := &Tag{
		Name: "p",
		Attributes: []token.Attribute{
			{Name: ":if", Kind: token.AttrExpression, Value: "a"},
			{Name: "id", Kind: token.AttrString, Value: "x"},
			{Name: ":if", Kind: token.AttrExpression, Value: "b"},
		},
	}
	tag.AppendChild(&Text{Content: "hi"})

	stripped := tag.WithoutAttribute(":if")

	require.Len(t, stripped.Attributes, 2)
	assert.Equal(t, "id", stripped.Attributes[0].Name)
	assert.Equal(t, "b", stripped.Attributes[1].Value)
	assert.Len(t, stripped.Children(), 1)

	assert.Len(t, tag.Attributes, 3, "original attributes must be kept")
	stripped.AppendChild(&Newline{})
	assert.Len(t, tag.Children(), 1, "original children must be kept")
}

func TestBlockClassification(t *testing.T) {
	opening := []string{
		"if user",
		"  unless admin ",
		"form_with(model: @user) do |f|",
		"items.each do |item, index|",
		"capture do",
		"if",
	}
	for _, expr := range opening {
		assert.True(t, IsBlockOpening(expr), expr)
		assert.False(t, IsBlockEnding(expr), expr)
	}

	leaves := []string{
		"name",
		"iffy",
		"undo",
		"elsif x",
		"user.do_something",
		"end",
	}
	for _, expr := range leaves {
		assert.False(t, IsBlockOpening(expr), expr)
	}

	assert.True(t, IsBlockEnding("end"))
	assert.True(t, IsBlockEnding(" end "))
	assert.False(t, IsBlockEnding("end_time"))
	assert.False(t, IsBlockEnding("the end"))

	assert.True(t, (&PrintingExpression{Expression: "if x"}).IsBlockOpening())
	assert.True(t, (&ControlExpression{Expression: "end"}).IsBlockEnding())
}

func TestTypeName(t *testing.T) {
	nodes := map[string]Node{
		"Root":               &Root{},
		"Text":               &Text{},
		"Newline":            &Newline{},
		"PublicComment":      &PublicComment{},
		"PrivateComment":     &PrivateComment{},
		"PrintingExpression": &PrintingExpression{},
		"ControlExpression":  &ControlExpression{},
		"Tag":                &Tag{},
		"Block":              &Block{},
	}
	for name, n := range nodes {
		assert.Equal(t, name, TypeName(n))
	}
}

func TestCloneIsDeep(t *testing.T) {
	root := &Root{}
	tag := &Tag{Name: "div", Attributes: []token.Attribute{{Name: "id", Kind: token.AttrString, Value: "a"}}}
	tag.AppendChild(&Text{Content: "x"})
	root.AppendChild(tag)

	cp := Clone(root).(*Root)
	cpTag := cp.Children()[0].(*Tag)
	cpTag.Attributes[0].Value = "changed"
	cpTag.Children()[0].(*Text).Content = "changed"

	assert.Equal(t, "a", tag.Attributes[0].Value)
	assert.Equal(t, "x", tag.Children()[0].(*Text).Content)
}

func TestWalkAndDump(t *testing.T) {
	root := &Root{}
	block := &Block{Name: "if", Expression: "x"}
	block.AppendChild(&PrintingExpression{Expression: "x"})
	root.AppendChild(&Text{Content: "a"})
	root.AppendChild(block)
	root.AppendChild(&Tag{Name: "br", SelfClosing: true})

	var visited []string
	Walk(root, func(n Node, depth int) bool {
		visited = append(visited, TypeName(n))
		return TypeName(n) != "Block"
	})
	assert.Equal(t, []string{"Root", "Text", "Block", "Tag"}, visited)

	expected := "Root\n" +
		"  Text(\"a\")\n" +
		"  Block(if \"x\")\n" +
		"    PrintingExpression(\"x\")\n" +
		"  Tag(br /)\n"
	assert.Equal(t, expected, Dump(root))
}
