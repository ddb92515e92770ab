package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/vidmeta/internal/api"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Long: `Start the HTTP API server.

Endpoints:
  GET  /api/v1/health
  POST /api/v1/parse
  GET  /api/v1/actors
  POST /api/v1/actors
  POST /api/v1/actors/{id}/aliases
  GET  /api/v1/videos
  GET  /api/v1/videos/lookup?path=

Examples:
  vidmeta serve                        # Listen on server.addr from config
  vidmeta serve --addr 0.0.0.0:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			if addr == "" {
				addr = cfg.Server.Addr
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			server := api.NewServer(db, addr, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			fmt.Fprintf(cmd.OutOrStdout(), "vidmeta API listening on %s\n", addr)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("failed to shut down: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default from config)")

	return cmd
}
