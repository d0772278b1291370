package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/orbit/internal/compiler"
	"github.com/conneroisu/orbit/internal/config"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/ir"
	"github.com/conneroisu/orbit/internal/logging"
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a template to IR",
	Long: `Compile a template and print its intermediate representation.

Examples:
  orbit compile page.orb                 # S-expression form
  orbit compile page.orb -f json         # Nested JSON arrays
  orbit compile page.orb --deferred      # Embed syntax errors in the IR
  orbit compile --capture=false < page.orb`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

var compileFlags *StandardFlags

func init() {
	rootCmd.AddCommand(compileCmd)
	compileFlags = AddStandardFlags(compileCmd, "compiler", "output")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	compileFlags.Apply(cmd, cfg)

	name, src, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	if compileFlags.File != "" {
		name = compileFlags.File
	}

	node, err := compiler.Compile(src, compilerOptions(cfg, name, logger)...)
	if err != nil {
		printDiagnostics(cmd.ErrOrStderr(), []errors.Diagnostic{errors.DiagnosticFromError(err)})
		return fmt.Errorf("%s failed to compile", name)
	}

	out, closeOut, err := openOutput(cmd, compileFlags)
	if err != nil {
		return err
	}
	if err := ir.Encode(out, node, cfg.Output.Format); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func compilerOptions(cfg *config.Config, file string, logger logging.Logger) []compiler.Option {
	return []compiler.Option{
		compiler.WithCapture(cfg.Compiler.Capture),
		compiler.WithTempPrefix(cfg.Compiler.TempPrefix),
		compiler.WithDeferredErrors(cfg.Compiler.DeferredErrors),
		compiler.WithFailFast(cfg.Compiler.FailFast),
		compiler.WithFile(file),
		compiler.WithLogger(logger),
	}
}
