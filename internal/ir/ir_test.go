package ir

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/orbit/internal/ast"
	"github.com/conneroisu/orbit/internal/token"
)

func hello() Node {
	return NewMulti(
		&Static{Text: "Hello, "},
		EscapedDynamic("name"),
		&Static{Text: "!"},
	)
}

func TestTuple(t *testing.T) {
	assert.Equal(t, []any{
		"multi",
		[]any{"static", "Hello, "},
		[]any{"escape", true, []any{"dynamic", "name"}},
		[]any{"static", "!"},
	}, Tuple(hello()))
}

func TestTupleIf(t *testing.T) {
	withoutElse := &If{Cond: "x", Then: NewMulti()}
	assert.Equal(t, []any{"if", "x", []any{"multi"}}, Tuple(withoutElse))

	withElse := &If{Cond: "x", Then: NewMulti(), Else: &Static{Text: "no"}}
	assert.Len(t, Tuple(withElse), 4)
}

func TestTupleHTMLTag(t *testing.T) {
	tag := &HTMLTag{
		Name: "a",
		Attrs: &HTMLAttrs{Attrs: []Node{
			&HTMLAttr{Name: "href", Value: &Static{Text: "/"}},
			&HTMLAttr{Name: "hidden", Value: NewMulti()},
		}},
		Content: NewMulti(&Static{Text: "home"}),
	}
	assert.Equal(t, []any{
		"html-tag", "a",
		[]any{"html-attrs",
			[]any{"html-attr", "href", []any{"static", "/"}},
			[]any{"html-attr", "hidden", []any{"multi"}},
		},
		[]any{"multi", []any{"static", "home"}},
	}, Tuple(tag))

	void := &HTMLTag{Name: "br", Attrs: &HTMLAttrs{}}
	assert.Equal(t, []any{"html-tag", "br", []any{"html-attrs"}}, Tuple(void))
}

func TestTupleTags(t *testing.T) {
	tag := &ast.Tag{
		Name:       "Card",
		Attributes: []token.Attribute{{Kind: token.AttrSplat, Value: "**attrs"}},
	}
	got := Tuple(&DynamicTag{Tag: tag, Content: NewMulti()})
	assert.Equal(t, []any{
		"dynamic-tag",
		[]any{"Card", []any{[]any{nil, "splat", "**attrs"}}, false},
		[]any{"multi"},
	}, got)

	assert.Equal(t, "component", Tuple(&Component{Tag: tag})[0])
	assert.Equal(t, "slot", Tuple(&Slot{Tag: tag})[0])
}

func TestFormat(t *testing.T) {
	assert.Equal(t,
		`(multi (static "Hello, ") (escape true (dynamic "name")) (static "!"))`,
		Format(hello()))
	assert.Equal(t,
		`(raise "ParserError" "unclosed" 3)`,
		Format(&Raise{Kind: "ParserError", Message: "unclosed", Line: 3}))
	assert.Equal(t,
		`(multi (block "__t1" "form do" (capture "__t1" (multi))) (escape true (dynamic "__t1")))`,
		Format(NewMulti(
			&Block{Temp: "__t1", Code: "form do", Body: &Capture{Temp: "__t1", Body: NewMulti()}},
			EscapedDynamic("__t1"),
		)))
}

func TestMultiAppendFlattens(t *testing.T) {
	m := NewMulti(&Static{Text: "a"})
	m.Append(NewMulti(&Static{Text: "b"}, &Newline{}), &Static{Text: "c"})
	require.Len(t, m.Nodes, 4)
	assert.IsType(t, &Newline{}, m.Nodes[2])
}

func TestWalk(t *testing.T) {
	tree := NewMulti(
		&If{Cond: "a", Then: NewMulti(EscapedDynamic("b"))},
		&HTMLTag{Name: "p", Attrs: &HTMLAttrs{}, Content: &Static{Text: "x"}},
	)

	var dynamics []string
	count := 0
	Walk(tree, func(n Node) bool {
		count++
		if d, ok := n.(*Dynamic); ok {
			dynamics = append(dynamics, d.Code)
		}
		return true
	})
	assert.Equal(t, []string{"b"}, dynamics)
	assert.Equal(t, 8, count)

	count = 0
	Walk(tree, func(n Node) bool {
		count++
		_, isIf := n.(*If)
		return !isIf
	})
	assert.Equal(t, 5, count)
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, hello(), FormatJSON))

	var decoded []any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "multi", decoded[0])
	assert.Equal(t, []any{"escape", true, []any{"dynamic", "name"}}, decoded[2])
}

func TestEncodeJSONDoesNotEscapeMarkup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &Static{Text: "<p>"}, FormatJSON))
	assert.Contains(t, buf.String(), `"<p>"`)
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, hello(), FormatYAML))

	var decoded []any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 4)
	assert.Equal(t, []any{"static", "Hello, "}, decoded[1])
}

func TestEncodeSexp(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &Newline{}, FormatSexp))
	assert.Equal(t, "(newline)\n", buf.String())
}

func TestEncodeUnknownFormat(t *testing.T) {
	err := Encode(&bytes.Buffer{}, hello(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
