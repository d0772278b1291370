// Package lint runs static checks over parsed templates. Findings are
// reported as warning diagnostics; they never stop compilation.
package lint

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/conneroisu/orbit/internal/ast"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/logging"
	"github.com/conneroisu/orbit/internal/registry"
)

// Rule identifiers, used as diagnostic codes.
const (
	RuleUnknownElement      = "unknown-element"
	RuleUnresolvedComponent = "unresolved-component"
	RuleDuplicateAttribute  = "duplicate-attribute"
	RuleDuplicateID         = "duplicate-id"
	RuleMissingAltText      = "missing-alt-text"
	RuleMissingButtonText   = "missing-button-text"
)

// Rule is a single check run against every tag of a template.
type Rule struct {
	ID          string
	Description string
	Check       func(tag *ast.Tag, state *State) []errors.Diagnostic
}

// State is shared between rule invocations over one template.
type State struct {
	ids map[string]*ast.Tag
}

// Linter checks templates against a set of rules.
type Linter struct {
	rules    []Rule
	disabled map[string]bool
	registry *registry.ComponentRegistry
	logger   logging.Logger
}

// Option configures a Linter.
type Option func(*Linter)

// WithRegistry enables the unresolved component check against r.
func WithRegistry(r *registry.ComponentRegistry) Option {
	return func(l *Linter) { l.registry = r }
}

// WithDisabled turns off the rules with the given identifiers.
func WithDisabled(ids ...string) Option {
	return func(l *Linter) {
		for _, id := range ids {
			l.disabled[id] = true
		}
	}
}

// WithLogger sets the logger used for tracing.
func WithLogger(logger logging.Logger) Option {
	return func(l *Linter) { l.logger = logger.WithComponent("lint") }
}

// New returns a linter with the default rules.
func New(opts ...Option) *Linter {
	l := &Linter{
		rules:    DefaultRules(),
		disabled: make(map[string]bool),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lint runs a default linter over root.
func Lint(root ast.Node, opts ...Option) []errors.Diagnostic {
	return New(opts...).Lint(root)
}

// Rules returns the enabled rules.
func (l *Linter) Rules() []Rule {
	rules := make([]Rule, 0, len(l.rules))
	for _, rule := range l.rules {
		if !l.disabled[rule.ID] {
			rules = append(rules, rule)
		}
	}
	return rules
}

// Lint checks root and returns the findings in source order per rule pass.
func (l *Linter) Lint(root ast.Node) []errors.Diagnostic {
	state := &State{ids: make(map[string]*ast.Tag)}
	rules := l.Rules()

	var diagnostics []errors.Diagnostic
	ast.Walk(root, func(n ast.Node, _ int) bool {
		tag, ok := n.(*ast.Tag)
		if !ok {
			return true
		}
		for _, rule := range rules {
			diagnostics = append(diagnostics, rule.Check(tag, state)...)
		}
		return true
	})

	if l.registry != nil && !l.disabled[RuleUnresolvedComponent] {
		for _, ref := range l.registry.Analyzer().References(root) {
			if ref.Found {
				continue
			}
			diagnostics = append(diagnostics, warning(ref.Tag, RuleUnresolvedComponent,
				fmt.Sprintf("component %s is not registered", ref.Name)))
		}
	}

	l.logger.Debug(context.Background(), "Linted template",
		"rules", len(rules), "diagnostics", len(diagnostics))
	return diagnostics
}

// DefaultRules returns the built-in tag rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          RuleUnknownElement,
			Description: "HTML tags must name a known element or a custom element",
			Check:       checkUnknownElement,
		},
		{
			ID:          RuleDuplicateAttribute,
			Description: "Attributes must not repeat on a tag",
			Check:       checkDuplicateAttribute,
		},
		{
			ID:          RuleDuplicateID,
			Description: "Static id values must be unique in a template",
			Check:       checkDuplicateID,
		},
		{
			ID:          RuleMissingAltText,
			Description: "Images must have alternative text",
			Check:       checkMissingAltText,
		},
		{
			ID:          RuleMissingButtonText,
			Description: "Buttons must have an accessible name",
			Check:       checkMissingButtonText,
		},
	}
}

func warning(tag *ast.Tag, code, message string) errors.Diagnostic {
	pos := tag.Pos()
	return errors.Diagnostic{
		Line:     pos.Line,
		Column:   pos.Column,
		Code:     code,
		Message:  message,
		Severity: errors.ErrorSeverityWarning,
	}
}

// KnownElement reports whether name is a standard HTML element or a
// custom element name.
func KnownElement(name string) bool {
	if strings.Contains(name, "-") {
		return true
	}
	return atom.Lookup([]byte(strings.ToLower(name))) != 0
}

func checkUnknownElement(tag *ast.Tag, _ *State) []errors.Diagnostic {
	if !tag.HTMLTag() || KnownElement(tag.Name) {
		return nil
	}
	return []errors.Diagnostic{warning(tag, RuleUnknownElement,
		fmt.Sprintf("unknown HTML element <%s>", tag.Name))}
}

func checkDuplicateAttribute(tag *ast.Tag, _ *State) []errors.Diagnostic {
	var diagnostics []errors.Diagnostic
	seen := make(map[string]bool, len(tag.Attributes))
	for _, attr := range tag.Attributes {
		if attr.Splat() {
			continue
		}
		if seen[attr.Name] {
			diagnostics = append(diagnostics, warning(tag, RuleDuplicateAttribute,
				fmt.Sprintf("attribute %s repeated on <%s>", attr.Name, tag.Name)))
			continue
		}
		seen[attr.Name] = true
	}
	return diagnostics
}

func checkDuplicateID(tag *ast.Tag, state *State) []errors.Diagnostic {
	attr, ok := staticAttribute(tag, "id")
	if !ok || attr == "" {
		return nil
	}
	if first, dup := state.ids[attr]; dup {
		return []errors.Diagnostic{warning(tag, RuleDuplicateID,
			fmt.Sprintf("duplicate id %q, first used at %s", attr, first.Pos()))}
	}
	state.ids[attr] = tag
	return nil
}

func checkMissingAltText(tag *ast.Tag, _ *State) []errors.Diagnostic {
	if tag.Name != "img" || tag.HasSplats() || hasAttribute(tag, "alt") {
		return nil
	}
	return []errors.Diagnostic{warning(tag, RuleMissingAltText, "image missing alt attribute")}
}

func checkMissingButtonText(tag *ast.Tag, _ *State) []errors.Diagnostic {
	if tag.Name != "button" || tag.HasSplats() {
		return nil
	}
	if hasAttribute(tag, "aria-label") || hasAttribute(tag, "aria-labelledby") || hasContent(tag) {
		return nil
	}
	return []errors.Diagnostic{warning(tag, RuleMissingButtonText, "button missing accessible name")}
}

func hasAttribute(tag *ast.Tag, name string) bool {
	for _, attr := range tag.Attributes {
		if attr.Name == name {
			return true
		}
	}
	return false
}

func staticAttribute(tag *ast.Tag, name string) (string, bool) {
	for _, attr := range tag.Attributes {
		if attr.Name == name && attr.Static() {
			return attr.Value, true
		}
	}
	return "", false
}

// hasContent reports whether a tag renders anything besides whitespace.
func hasContent(n ast.Node) bool {
	for _, child := range n.Children() {
		switch child := child.(type) {
		case *ast.Text:
			if strings.TrimSpace(child.Content) != "" {
				return true
			}
		case *ast.PrintingExpression, *ast.Tag, *ast.Block:
			return true
		case *ast.ControlExpression:
			if hasContent(child) {
				return true
			}
		}
	}
	return false
}
