package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/orbit/internal/registry"
	"github.com/conneroisu/orbit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the live compilation playground",
	Long: `Start the playground server. The browser page compiles what you type
over a websocket, and templates under the configured paths are rebuilt and
pushed to every open page as they change.

Endpoints:
  /                    Playground page
  /ws                  Compile requests and build updates
  /api/compile         Compile over plain HTTP (POST)
  /api/components      Registered components and their dependencies
  /preview/{name}      Static preview of a template's last build
  /health              Server status

Examples:
  orbit serve
  orbit serve --port 3000 --host 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags *StandardFlags

func init() {
	rootCmd.AddCommand(serveCmd)
	serveFlags = AddStandardFlags(serveCmd, "compiler", "server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	serveFlags.Apply(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.NewComponentRegistry(cfg.Components)
	builder, fileWatcher, err := startWatching(ctx, cfg, reg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	srv := server.New(cfg, reg, builder, logger)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, err, "Error during server shutdown")
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Starting Orbit playground at http://%s\n", srv.Addr())
	return srv.Start(ctx)
}
