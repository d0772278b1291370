package ir

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats understood by Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatSexp = "sexp"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatYAML, FormatSexp}

// Encode writes the tuple form of n to w in the given format.
func Encode(w io.Writer, n Node, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(Tuple(n)); err != nil {
			return fmt.Errorf("encoding IR as json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(Tuple(n)); err != nil {
			return fmt.Errorf("encoding IR as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding IR as yaml: %w", err)
		}
		return nil
	case FormatSexp:
		if _, err := fmt.Fprintln(w, Format(n)); err != nil {
			return fmt.Errorf("writing IR: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want one of %v)", format, Formats)
	}
}
