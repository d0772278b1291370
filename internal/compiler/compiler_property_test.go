//go:build property
// +build property

package compiler

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/orbit/internal/ir"
)

// TestCompilerProperties checks lowering invariants over generated input.
func TestCompilerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("plain text lowers to static and newline nodes only", prop.ForAll(
		func(src string) bool {
			node, err := Compile(src)
			if err != nil {
				return false
			}

			var b strings.Builder
			ok := true
			for _, n := range node.(*ir.Multi).Nodes {
				switch n := n.(type) {
				case *ir.Static:
					b.WriteString(n.Text)
				case *ir.Newline:
					b.WriteString("\n")
				default:
					ok = false
				}
			}
			return ok && b.String() == src
		},
		gen.RegexMatch(`^[a-zA-Z0-9 ,.!?\n-]*$`),
	))

	properties.Property("deferred errors pad to the error line", prop.ForAll(
		func(lines int) bool {
			src := strings.Repeat("x\n", lines) + "</p>"
			node, err := Compile(src, WithDeferredErrors(true))
			if err != nil {
				return false
			}
			m := node.(*ir.Multi)
			raise, ok := m.Nodes[len(m.Nodes)-1].(*ir.Raise)
			return ok && raise.Line == lines+1 && len(m.Nodes) == lines+1
		},
		gen.IntRange(0, 50),
	))

	properties.Property("temporaries never repeat within a compiler", prop.ForAll(
		func(n int) bool {
			src := strings.Repeat("{{ f do }}x{% end %}", n)
			node, err := Compile(src)
			if err != nil {
				return false
			}
			seen := map[string]bool{}
			unique := true
			ir.Walk(node, func(n ir.Node) bool {
				if b, ok := n.(*ir.Block); ok {
					unique = unique && !seen[b.Temp]
					seen[b.Temp] = true
				}
				return true
			})
			return unique && len(seen) == n
		},
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
