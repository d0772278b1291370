// Package cmd provides the orbit command-line interface.
//
// # Available Commands
//
//   - lex: print the token stream of a template
//   - parse: print the syntax tree of a template
//   - compile: compile a template to IR (json, yaml or sexp)
//   - check: compile and lint templates, reporting diagnostics
//   - preview: render a static HTML preview of a template
//   - watch: recompile templates as they change
//   - serve: run the websocket playground with live rebuilds
//   - version: show build information
//
// # Command Examples
//
//	// Compile a template from stdin as an s-expression
//	echo '<p>{{ name }}</p>' | orbit compile --format sexp
//
//	// Check every template under the configured paths
//	orbit check
//
//	// Preview one template in the browser
//	orbit preview views/card.orb -o card.html
//
// Templates given as "-" or omitted are read from standard input.
package cmd
