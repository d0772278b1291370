package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/orbit/internal/ast"
	"github.com/conneroisu/orbit/internal/compiler"
	"github.com/conneroisu/orbit/internal/errors"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Print the syntax tree of a template",
	Long: `Parse a template and print its syntax tree, one node per line and
indented by depth.

Examples:
  orbit parse views/card.orb
  echo '<ul><li>x</li></ul>' | orbit parse`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

var parseFile string

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVar(&parseFile, "file", "", "File name reported in diagnostics for stdin input")
}

func runParse(cmd *cobra.Command, args []string) error {
	_, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	name, src, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	if parseFile != "" {
		name = parseFile
	}

	root, err := compiler.New(compiler.WithFile(name), compiler.WithLogger(logger)).Parse(src)
	if err != nil {
		printDiagnostics(cmd.ErrOrStderr(), []errors.Diagnostic{errors.DiagnosticFromError(err)})
		return fmt.Errorf("%s failed to parse", name)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), ast.Dump(root))
	return err
}
