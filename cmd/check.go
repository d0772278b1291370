package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/orbit/internal/config"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/registry"
	"github.com/conneroisu/orbit/internal/watcher"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Compile and lint templates",
	Long: `Compile every template under the configured paths, or only the
given files, and report compiler errors and lint warnings. Component
references are resolved against all templates under the configured paths.

Exits non-zero when any template fails to compile.

Examples:
  orbit check                     # Check all templates
  orbit check views/card.orb      # Check one template
  orbit check --stop-on-failure   # Stop at the first failing template
  orbit check --fail-fast=false   # Report every lexer error per template
  orbit check --json              # Diagnostics as JSON`,
	RunE: runCheck,
}

var (
	checkFlags         *StandardFlags
	checkJSON          bool
	checkStopOnFailure bool
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkFlags = AddStandardFlags(checkCmd, "compiler")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print diagnostics as JSON")
	checkCmd.Flags().BoolVar(&checkStopOnFailure, "stop-on-failure", false, "Stop reporting at the first failing template")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	checkFlags.Apply(cmd, cfg)

	validation := config.ValidateWithDetails(cfg)
	if validation.HasErrors() || validation.HasWarnings() {
		fmt.Fprint(cmd.ErrOrStderr(), validation.String())
	}
	if validation.HasErrors() {
		return fmt.Errorf("invalid configuration")
	}

	reg := registry.NewComponentRegistry(cfg.Components)
	builder := watcher.NewBuilder(cfg, reg, logger)
	results, err := builder.Scan(cmd.Context())
	if err != nil {
		return err
	}
	if len(args) > 0 {
		results = results[:0]
		for _, path := range args {
			results = append(results, builder.Build(cmd.Context(), path))
		}
	}

	var diagnostics []errors.Diagnostic
	checked, failed := 0, 0
	for _, result := range results {
		checked++
		diagnostics = append(diagnostics, result.Diagnostics...)
		if result.Failed() {
			failed++
			if checkStopOnFailure {
				break
			}
		}
	}

	if checkJSON {
		if diagnostics == nil {
			diagnostics = []errors.Diagnostic{}
		}
		if err := encodeJSON(cmd.OutOrStdout(), diagnostics); err != nil {
			return err
		}
	} else {
		printDiagnostics(cmd.OutOrStdout(), diagnostics)
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d templates: %d failed, %d diagnostics\n",
			checked, failed, len(diagnostics))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed to compile", failed, checked)
	}
	return nil
}
