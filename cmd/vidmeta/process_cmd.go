package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/vidmeta/internal/app"
	"github.com/Nomadcxx/vidmeta/internal/scanner"
	"github.com/Nomadcxx/vidmeta/internal/ui"
)

func newProcessCmd() *cobra.Command {
	var (
		workers   int
		noAI      bool
		recursive bool
		summary   bool
	)

	cmd := &cobra.Command{
		Use:   "process <dir|file>",
		Short: "Process video files into catalog records",
		Long: `Parse, consolidate and store every video file under a directory, or a
single file. Consolidated metadata is printed as JSON.

Content analysis runs only for files whose names lack a title, a code or
an actor, and only when enabled in the config.

Examples:
  vidmeta process /videos/incoming
  vidmeta process /videos --recursive --workers 8
  vidmeta process clip.mp4 --no-ai --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Processing.Workers = workers
			}
			if cmd.Flags().Changed("recursive") {
				cfg.Processing.Recursive = recursive
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			a, err := app.Open(cfg, logger, app.Options{DisableAI: noAI, DryRun: dryRun})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sc := scanner.New(a.Processor, scanner.Options{
				Extensions: cfg.Processing.Extensions,
				Recursive:  cfg.Processing.Recursive,
				Workers:    cfg.Processing.Workers,
				Logger:     logger,
			})

			result, err := sc.Scan(ctx, args[0])
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if summary {
				ui.Section(out, "Summary")
				ui.KeyValue(out, "Found", fmt.Sprint(result.FilesFound))
				ui.KeyValue(out, "Processed", fmt.Sprint(result.FilesProcessed))
				ui.KeyValue(out, "Failed", fmt.Sprint(result.FilesFailed))
				ui.KeyValue(out, "Analyzed", fmt.Sprint(result.AITriggered))
				ui.KeyValue(out, "Duration", ui.FormatDuration(result.Duration))
				for _, fe := range result.Errors {
					ui.ErrorMsg(out, "%s: %s", fe.Path, fe.Err)
				}
			} else {
				metas := make([]interface{}, 0, len(result.Results))
				for _, r := range result.Results {
					metas = append(metas, r.Metadata)
				}
				if err := printJSON(out, metas); err != nil {
					return err
				}
			}

			if result.FilesFound > 0 && result.FilesProcessed == 0 {
				return fmt.Errorf("all %d files failed", result.FilesFound)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "parallel workers (default from config)")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "skip content analysis")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "process subdirectories")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a summary instead of JSON")

	return cmd
}
