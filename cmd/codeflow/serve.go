package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/internal/cli"
	"github.com/codeflow-dev/codeflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	Long: `Serves the playback protocol on /ws, the one-shot API on /api/execute and
/api/validate, health and info endpoints, the OpenAPI document and
Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		// Create a context that cancels on interrupt signal
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := cli.NewServer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if tui.IsTerminal(os.Stderr) {
			tui.PrintBanner(os.Stderr, codeflow.Version)
		}
		if err := srv.Run(ctx); err != nil {
			return err
		}
		logger.Info("codeflow server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides server.addr)")
}
