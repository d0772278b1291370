//go:build property
// +build property

package parser

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/orbit/internal/ast"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/lexer"
)

// nest wraps body according to shape: each element picks a tag or a block.
func nest(shape []bool, body string) string {
	var open, closing strings.Builder
	for i, tag := range shape {
		if tag {
			open.WriteString("<div>")
		} else {
			open.WriteString("{#if c}")
		}
		j := len(shape) - 1 - i
		if shape[j] {
			closing.WriteString("</div>")
		} else {
			closing.WriteString("{/if}")
		}
	}
	return open.String() + body + closing.String()
}

// TestParserProperties checks structural balance for generated nestings.
func TestParserProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("balanced nesting parses to the same depth", prop.ForAll(
		func(shape []bool) bool {
			tokens, errs := lexer.Tokenize(nest(shape, "x"))
			if len(errs) > 0 {
				return false
			}
			root, err := Parse(tokens)
			if err != nil {
				return false
			}

			maxDepth := 0
			ast.Walk(root, func(n ast.Node, depth int) bool {
				if depth > maxDepth {
					maxDepth = depth
				}
				return true
			})
			return maxDepth == len(shape)+1
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("dropping a close is a parser error", prop.ForAll(
		func(shape []bool) bool {
			src := nest(shape, "x")
			if shape[0] {
				src = strings.TrimSuffix(src, "</div>")
			} else {
				src = strings.TrimSuffix(src, "{/if}")
			}
			tokens, errs := lexer.Tokenize(src)
			if len(errs) > 0 {
				return false
			}
			_, err := Parse(tokens)
			return errors.IsParserError(err)
		},
		gen.SliceOf(gen.Bool()).SuchThat(func(s []bool) bool { return len(s) > 0 }),
	))

	properties.Property("an extra close is a parser error", prop.ForAll(
		func(shape []bool, tag bool) bool {
			extra := "{/if}"
			if tag {
				extra = "</div>"
			}
			tokens, errs := lexer.Tokenize(nest(shape, "x") + extra)
			if len(errs) > 0 {
				return false
			}
			_, err := Parse(tokens)
			return errors.IsParserError(err)
		},
		gen.SliceOf(gen.Bool()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
