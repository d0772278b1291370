//go:build property
// +build property

package lexer

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/orbit/internal/token"
)

// stripSyntax removes the bytes that can open a construct, leaving every
// other byte (including invalid UTF-8) in place.
var stripSyntax = strings.NewReplacer("<", "", "{", "")

// TestLexerProperties checks invariants that must hold for every input.
func TestLexerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Property: text without template syntax round-trips through text and
	// newline tokens.
	properties.Property("plain text is preserved verbatim", prop.ForAll(
		func(src string) bool {
			tokens, errs := Tokenize(src)
			if len(errs) > 0 {
				return false
			}

			var b strings.Builder
			for _, tok := range tokens {
				if tok.Kind != token.Text && tok.Kind != token.Newline {
					return false
				}
				b.WriteString(tok.Value)
			}
			return b.String() == src
		},
		gen.RegexMatch(`^[a-zA-Z0-9 ,.!?\n-]*$`),
	))

	// Property: in a mixed source, text and newline tokens reproduce the
	// literal segments between constructs byte for byte.
	properties.Property("literal segments survive between constructs", prop.ForAll(
		func(literals []string, constructs []string) bool {
			var src, want strings.Builder
			for i, lit := range literals {
				lit = stripSyntax.Replace(lit)
				src.WriteString(lit)
				want.WriteString(lit)
				if i < len(constructs) {
					src.WriteString(constructs[i])
				}
			}

			tokens, errs := Tokenize(src.String())
			if len(errs) > 0 {
				return false
			}
			var got strings.Builder
			for _, tok := range tokens {
				if tok.Kind == token.Text || tok.Kind == token.Newline {
					got.WriteString(tok.Value)
				}
			}
			return got.String() == want.String()
		},
		gen.SliceOf(gen.OneGenOf(
			gen.AnyString(),
			gen.SliceOf(gen.UInt8()).Map(func(b []uint8) string { return string(b) }),
			gen.OneConstOf("\n", "\r\n", "\r", "caf\xe9", "\xff\xfe", "日本語", "}}", "%}", "-->"),
		)),
		gen.SliceOf(gen.OneConstOf(
			"<p>", "</p>", "<br>", "<img src='a'/>", "<a href={url}>", "<Card **attrs>", "</Card>",
			"{{ x }}", "{% y %}", "{#if z}", "{/if}", "<!-- c -->", "{!-- p --}",
		)),
	))

	// Property: positions never go backwards.
	properties.Property("positions are monotonic", prop.ForAll(
		func(parts []string) bool {
			tokens, _ := Tokenize(strings.Join(parts, ""), WithFailFast(false))
			for i := 1; i < len(tokens); i++ {
				if tokens[i].Pos.Before(tokens[i-1].Pos) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf(
			"text", " ", "\n", "\r\n", "<p>", "</p>", "<br>", "<img src='a'/>",
			"{{ x }}", "{% y %}", "{#if z}", "{/if}", "<!-- c -->", "{!-- p --}",
			"<Card **attrs>", "</Card>", "<pre$>", "</pre$>", "<", "{", "}",
		)),
	))

	// Property: every attribute is exactly one of the four kinds.
	properties.Property("attribute classification is total and exclusive", prop.ForAll(
		func(name, value string, form int) bool {
			var src string
			switch form {
			case 0:
				src = "<div " + name + "='" + value + "'/>"
			case 1:
				src = "<div " + name + "/>"
			case 2:
				src = "<div " + name + "={" + value + "}/>"
			default:
				src = "<div **" + name + "/>"
			}

			tokens, errs := Tokenize(src)
			if len(errs) > 0 || len(tokens) != 1 || len(tokens[0].Attributes) != 1 {
				return false
			}

			a := tokens[0].Attributes[0]
			matches := 0
			for _, ok := range []bool{
				a.Kind == token.AttrString,
				a.Kind == token.AttrBoolean,
				a.Kind == token.AttrExpression,
				a.Kind == token.AttrSplat,
			} {
				if ok {
					matches++
				}
			}
			predicates := 0
			for _, ok := range []bool{a.Static(), a.Dynamic(), a.Splat()} {
				if ok {
					predicates++
				}
			}
			return matches == 1 && predicates == 1
		},
		gen.RegexMatch(`^[a-z][a-z0-9-]{0,8}$`),
		gen.RegexMatch(`^[a-z0-9 ]{0,8}$`),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
