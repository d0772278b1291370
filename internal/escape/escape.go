// Package escape provides the HTML escaping collaborator used by the preview
// renderer and the error overlay.
package escape

import "github.com/a-h/templ"

// Escaper turns arbitrary text into text that is safe to embed in HTML.
type Escaper func(text string) string

// HTML escapes text with templ's escaping rules.
func HTML(text string) string {
	return templ.EscapeString(text)
}

// Default is the escaper used when none is configured.
var Default Escaper = HTML

// Or returns e, falling back to Default when e is nil.
func (e Escaper) Or() Escaper {
	if e == nil {
		return Default
	}
	return e
}
