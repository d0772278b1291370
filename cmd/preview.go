package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/orbit/internal/compiler"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/lint"
	"github.com/conneroisu/orbit/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Render a static HTML preview of a template",
	Long: `Render a template as a standalone HTML page. Expressions are shown
in place, conditionals show their first branch and loops render once.
Syntax errors appear in the page instead of aborting.

Examples:
  orbit preview views/card.orb -o card.html
  orbit preview views/card.orb > card.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

var previewFlags *StandardFlags

func init() {
	rootCmd.AddCommand(previewCmd)
	previewFlags = AddStandardFlags(previewCmd, "compiler", "output")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	previewFlags.Apply(cmd, cfg)
	cfg.Compiler.DeferredErrors = true

	name, src, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	if previewFlags.File != "" {
		name = previewFlags.File
	}

	collector := errors.NewErrorCollector()
	comp := compiler.New(compilerOptions(cfg, name, logger)...)
	node, err := comp.Compile(src)
	if err != nil {
		collector.AddError(err)
	}
	if root, err := comp.Parse(src); err != nil {
		collector.AddError(err)
	} else {
		for _, d := range lint.Lint(root, lint.WithLogger(logger)) {
			d.File = name
			collector.Add(d)
		}
	}

	out, closeOut, err := openOutput(cmd, previewFlags)
	if err != nil {
		return err
	}
	title := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	page := preview.New(preview.WithLogger(logger)).Page(title, node, collector.ErrorOverlay())
	if err := page.Render(cmd.Context(), out); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}
