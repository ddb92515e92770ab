package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/vidmeta/internal/app"
	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/processor"
	"github.com/Nomadcxx/vidmeta/internal/scanner"
	"github.com/Nomadcxx/vidmeta/internal/ui"
	"github.com/Nomadcxx/vidmeta/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		noAI   bool
		settle time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Process video files as they arrive",
		Long: `Watch directories and process each new or modified video file once it
has stopped changing.

Examples:
  vidmeta watch /videos/incoming
  vidmeta watch /a /b --settle 5s`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			lockPath, err := cfg.WatchLockPath()
			if err != nil {
				return err
			}
			lock, err := watcher.AcquireLock(lockPath)
			if err != nil {
				return err
			}
			defer lock.Release()

			a, err := app.Open(cfg, logger, app.Options{DisableAI: noAI, DryRun: dryRun})
			if err != nil {
				return err
			}
			defer a.Close()

			matcher := scanner.New(nil, scanner.Options{Extensions: cfg.Processing.Extensions})
			out := cmd.OutOrStdout()
			handler := watcher.NewProcessHandler(a.Processor, matcher.IsVideoFile, logger)
			handler.OnResult = func(r *processor.Result) {
				ui.SuccessMsg(out, "%s → %s", r.Path, r.Metadata.StandardizedFilename)
			}

			w, err := watcher.NewWatcher(handler,
				watcher.WithRecursive(cfg.Processing.Recursive),
				watcher.WithSettleDelay(settle),
				watcher.WithLogger(logger))
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.Watch(args); err != nil {
				return fmt.Errorf("failed to watch: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("watch", "Watching for videos. Press Ctrl+C to stop.", logging.F("dirs", args))
			return w.Start(ctx)
		},
	}

	cmd.Flags().BoolVar(&noAI, "no-ai", false, "skip content analysis")
	cmd.Flags().DurationVar(&settle, "settle", watcher.DefaultSettleDelay, "quiet period before a file is processed")

	return cmd
}
