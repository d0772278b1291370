package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/orbit/internal/ast"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/lexer"
	"github.com/conneroisu/orbit/internal/token"
)

func parse(t *testing.T, src string) *ast.Root {
	t.Helper()
	tokens, errs := lexer.Tokenize(src)
	require.Empty(t, errs)
	root, err := Parse(tokens)
	require.NoError(t, err)
	return root
}

func parseErr(t *testing.T, src string) *errors.TemplateError {
	t.Helper()
	tokens, errs := lexer.Tokenize(src)
	require.Empty(t, errs)
	_, err := Parse(tokens)
	require.Error(t, err)
	assert.True(t, errors.IsParserError(err))
	te, ok := errors.AsTemplateError(err)
	require.True(t, ok)
	return te
}

func TestParseEmpty(t *testing.T) {
	root, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, root.Children())
}

func TestParseText(t *testing.T) {
	root := parse(t, "Hello, World!")
	require.Len(t, root.Children(), 1)
	text, ok := root.Children()[0].(*ast.Text)
	require.True(t, ok)
	assert.Equal(t, "Hello, World!", text.Content)
}

func TestParseTagPair(t *testing.T) {
	root := parse(t, "<p>Hello, <b>World</b>!</p>")
	require.Len(t, root.Children(), 1)

	p, ok := root.Children()[0].(*ast.Tag)
	require.True(t, ok)
	assert.Equal(t, "p", p.Name)
	assert.Equal(t, token.Position{Line: 1, Column: 1}, p.Pos())

	content := parse(t, "Hello, <b>World</b>!")
	assert.Equal(t, children(ast.Dump(content)), children(ast.Dump(p)))
}

// children drops the first line of a dump. Walk depth is relative to the
// starting node, so a tag's children dump like a root's children.
func children(dump string) string {
	_, rest, _ := strings.Cut(dump, "\n")
	return rest
}

func TestParseSelfClosingAndVoid(t *testing.T) {
	root := parse(t, "<div><img src='a.png'><br/><input disabled></div>")
	require.Len(t, root.Children(), 1)
	div := root.Children()[0].(*ast.Tag)
	require.Len(t, div.Children(), 3)
	for _, child := range div.Children() {
		tag := child.(*ast.Tag)
		assert.True(t, tag.IsSelfClosing(), tag.Name)
		assert.Empty(t, tag.Children())
	}
}

func TestParseLeaves(t *testing.T) {
	root := parse(t, "<!-- a -->{!-- b --}\n{{ x }}{% y %}")
	assert.Equal(t, []string{
		"PublicComment", "PrivateComment", "Newline", "PrintingExpression", "ControlExpression",
	}, typeNames(root.Children()))
}

func TestParseBlock(t *testing.T) {
	root := parse(t, "Hello {#if name}{{name}}{/if}!")
	require.Len(t, root.Children(), 3)

	block, ok := root.Children()[1].(*ast.Block)
	require.True(t, ok)
	assert.Equal(t, "if", block.Name)
	assert.Equal(t, "name", block.Expression)
	require.Len(t, block.Children(), 1)
	assert.IsType(t, &ast.PrintingExpression{}, block.Children()[0])
}

func TestParseExpressionBlocks(t *testing.T) {
	root := parse(t, "{% items.each do |item| %}<li>{{ item }}</li>{% end %}{{ form do }}x{% end %}")
	require.Len(t, root.Children(), 2)

	each, ok := root.Children()[0].(*ast.ControlExpression)
	require.True(t, ok)
	assert.Equal(t, "items.each do |item|", each.Expression)
	require.Len(t, each.Children(), 1)
	assert.IsType(t, &ast.Tag{}, each.Children()[0])

	form, ok := root.Children()[1].(*ast.PrintingExpression)
	require.True(t, ok)
	require.Len(t, form.Children(), 1)
	assert.IsType(t, &ast.Text{}, form.Children()[0])
}

func TestParseNestedIndependentKinds(t *testing.T) {
	root := parse(t, "<ul>{#for x in xs}<li>{% if x %}{{x}}{% end %}</li>{/for}</ul>")
	expected := "Root\n" +
		"  Tag(ul)\n" +
		"    Block(for \"x in xs\")\n" +
		"      Tag(li)\n" +
		"        ControlExpression(\"if x\")\n" +
		"          PrintingExpression(\"x\")\n"
	assert.Equal(t, expected, ast.Dump(root))
}

func TestParseVerbatim(t *testing.T) {
	root := parse(t, "<pre$><b>{{x}}</b></pre$>")
	pre := root.Children()[0].(*ast.Tag)
	assert.True(t, pre.IsVerbatim())
	require.Len(t, pre.Children(), 1)
	assert.Equal(t, "<b>{{x}}</b>", pre.Children()[0].(*ast.Text).Content)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		line int
	}{
		{"stray closing tag", "text</p>", errors.ErrCodeUnmatchedClose, 1},
		{"mismatched closing tag", "<a>\n<b>\n</a>", errors.ErrCodeMismatchedClose, 3},
		{"tag closes block", "{#if x}\n</p>", errors.ErrCodeUnmatchedClose, 2},
		{"block closes tag", "<p>{/if}", errors.ErrCodeUnmatchedClose, 1},
		{"mismatched block", "{#if x}{/for}", errors.ErrCodeMismatchedClose, 1},
		{"stray end", "a\n\n{% end %}", errors.ErrCodeUnmatchedClose, 3},
		{"end closes tag", "{% if x %}<p>{% end %}</p>", errors.ErrCodeUnmatchedClose, 1},
		{"unclosed tag", "<div>\n<span>x</span>", errors.ErrCodeUnclosed, 1},
		{"unclosed block", "a\n{#if x}", errors.ErrCodeUnclosed, 2},
		{"unclosed expression block", "{{ form do }}", errors.ErrCodeUnclosed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := parseErr(t, tt.src)
			assert.Equal(t, tt.code, te.Code)
			assert.Equal(t, tt.line, te.Line)
		})
	}
}

func TestParseUnclosedNamesNode(t *testing.T) {
	te := parseErr(t, "<section><div>")
	assert.Contains(t, te.Message, "Tag <div>")

	te = parseErr(t, "{#for x in xs}")
	assert.Contains(t, te.Message, "Block {#for}")
}

func TestParseUnknownTokenKind(t *testing.T) {
	_, err := Parse([]token.Token{{Kind: token.Kind(99), Pos: token.Position{Line: 4, Column: 1}}})
	require.Error(t, err)
	te, ok := errors.AsTemplateError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUnknownNode, te.Code)
	assert.Equal(t, 4, te.Line)
}

func typeNames(nodes []ast.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = ast.TypeName(n)
	}
	return names
}
