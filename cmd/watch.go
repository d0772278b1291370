package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/orbit/internal/config"
	"github.com/conneroisu/orbit/internal/logging"
	"github.com/conneroisu/orbit/internal/registry"
	"github.com/conneroisu/orbit/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile templates as they change",
	Long: `Compile every template under the configured paths, then recompile
changed templates and the templates that use their components.

Examples:
  orbit watch                     # Watch all configured paths
  orbit watch --verbose           # Print every diagnostic
  orbit watch --debounce 250ms`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var (
	watchFlags    *StandardFlags
	watchVerbose  bool
	watchDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchFlags = AddStandardFlags(watchCmd, "compiler")
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Print diagnostics of every build")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Delay before rebuilding after a change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	watchFlags.Apply(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder, fileWatcher, err := startWatching(ctx, cfg, registry.NewComponentRegistry(cfg.Components), logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	builder.OnResult(func(result *watcher.Result) {
		reportResult(cmd.OutOrStdout(), result)
	})

	fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes, press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}

// startWatching scans the configured paths and starts a file watcher that
// hands changes to a builder.
func startWatching(ctx context.Context, cfg *config.Config, reg *registry.ComponentRegistry, logger logging.Logger, out io.Writer) (*watcher.Builder, *watcher.FileWatcher, error) {
	builder := watcher.NewBuilder(cfg, reg, logger)
	results, err := builder.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}
	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
			reportResult(out, result)
		}
	}
	fmt.Fprintf(out, "Compiled %d templates, %d failed\n", len(results), failed)

	fileWatcher, err := watcher.NewFileWatcher(watchDebounce, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, filter := range builder.Filters() {
		fileWatcher.AddFilter(filter)
	}
	fileWatcher.AddHandler(builder.HandleChanges)

	for _, path := range cfg.Files.Paths {
		if err := fileWatcher.AddRecursive(path); err != nil {
			logger.Warn(ctx, err, "Failed to watch path", "path", path)
			continue
		}
		logger.Info(ctx, "Watching path", "path", path)
	}

	if err := fileWatcher.Start(ctx); err != nil {
		fileWatcher.Stop()
		return nil, nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	return builder, fileWatcher, nil
}

func reportResult(out io.Writer, result *watcher.Result) {
	switch {
	case result.Removed:
		fmt.Fprintf(out, "removed  %s (%s)\n", result.Component, result.Path)
	case result.Failed():
		fmt.Fprintf(out, "failed   %s (%s)\n", result.Component, result.Path)
		printDiagnostics(out, result.Diagnostics)
	default:
		fmt.Fprintf(out, "compiled %s (%s)\n", result.Component, result.Path)
		if watchVerbose {
			printDiagnostics(out, result.Diagnostics)
		}
	}
}
