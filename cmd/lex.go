package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/ir"
	"github.com/conneroisu/orbit/internal/lexer"
	"github.com/conneroisu/orbit/internal/token"
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Print the token stream of a template",
	Long: `Tokenize a template and print its tokens. Every lexical error is
reported, not only the first.

Examples:
  orbit lex page.orb              # One token per line
  orbit lex page.orb -f json      # Tokens as JSON
  echo '<p>{{ x }}</p>' | orbit lex`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLex,
}

var lexFlags *StandardFlags

func init() {
	rootCmd.AddCommand(lexCmd)
	lexFlags = AddStandardFlags(lexCmd, "output")
}

func runLex(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	lexFlags.Apply(cmd, cfg)

	name, src, err := readSource(cmd, args)
	if err != nil {
		return err
	}

	tokens, errs := lexer.Tokenize(src, lexer.WithLogger(logger))

	out, closeOut, err := openOutput(cmd, lexFlags)
	if err != nil {
		return err
	}
	if err := writeTokens(out, tokens, cfg.Output.Format); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}

	if len(errs) == 0 {
		return nil
	}
	diagnostics := make([]errors.Diagnostic, 0, len(errs))
	for _, e := range errs {
		d := errors.DiagnosticFromError(e)
		d.File = name
		diagnostics = append(diagnostics, d)
	}
	printDiagnostics(cmd.ErrOrStderr(), diagnostics)
	return fmt.Errorf("%d lexical errors", len(errs))
}

func writeTokens(w io.Writer, tokens []token.Token, format string) error {
	switch format {
	case ir.FormatJSON:
		return encodeJSON(w, tokens)
	case ir.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tokens); err != nil {
			return fmt.Errorf("encoding tokens as yaml: %w", err)
		}
		return enc.Close()
	default:
		for _, tok := range tokens {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", tok.Pos, tok); err != nil {
				return err
			}
		}
		return nil
	}
}
