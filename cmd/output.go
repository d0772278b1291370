package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/orbit/internal/errors"
)

// openOutput returns the --output file, or stdout when none is given.
func openOutput(cmd *cobra.Command, flags *StandardFlags) (io.Writer, func() error, error) {
	if flags.Output == "" || flags.Output == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(flags.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// printDiagnostics writes one "file:line:col: severity: message [code]"
// line per diagnostic.
func printDiagnostics(w io.Writer, diagnostics []errors.Diagnostic) {
	for _, d := range diagnostics {
		location := fmt.Sprintf("%d", d.Line)
		if d.Column > 0 {
			location = fmt.Sprintf("%d:%d", d.Line, d.Column)
		}
		if d.File != "" {
			location = d.File + ":" + location
		}
		line := fmt.Sprintf("%s: %s: %s", location, d.Severity, d.Message)
		if d.Code != "" {
			line += " [" + d.Code + "]"
		}
		fmt.Fprintln(w, line)
	}
}

// countErrors returns how many diagnostics are errors or worse.
func countErrors(diagnostics []errors.Diagnostic) int {
	n := 0
	for _, d := range diagnostics {
		if d.Severity >= errors.ErrorSeverityError {
			n++
		}
	}
	return n
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
