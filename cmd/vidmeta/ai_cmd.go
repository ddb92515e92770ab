package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/vidmeta/internal/ai"
	"github.com/Nomadcxx/vidmeta/internal/app"
	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/ui"
)

func newAICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Content analysis commands",
		Long:  `Commands for inspecting the Ollama-backed content analysis.`,
	}

	cmd.AddCommand(newAIStatusCmd())
	cmd.AddCommand(newAICacheCleanupCmd())

	return cmd
}

func newAIStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show content analysis status",
		Long: `Display content analysis configuration and health.

Shows:
  - Configuration status (enabled/disabled)
  - Ollama endpoint and model
  - Whether Ollama answers
  - Circuit breaker state and usage counters
  - Cached answer count`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			ui.Section(out, "Content Analysis")
			ui.KeyValue(out, "Endpoint", cfg.AI.OllamaEndpoint)
			ui.KeyValue(out, "Model", cfg.AI.Model)
			ui.KeyValue(out, "Timeout", fmt.Sprintf("%ds", cfg.AI.TimeoutSeconds))
			ui.KeyValue(out, "Cache", fmt.Sprint(cfg.AI.CacheEnabled))

			if !cfg.AI.Enabled {
				ui.KeyValue(out, "Status", ui.Dim("disabled"))
				fmt.Fprintln(out, "\nEnable with 'enabled = true' under [ai] in config.toml.")
				return nil
			}
			ui.KeyValue(out, "Status", ui.Success("enabled"))

			client, err := app.InitAI(cfg, db, logging.Nop())
			if err != nil {
				return err
			}

			if err := client.Ping(cmd.Context()); err != nil {
				ui.KeyValue(out, "Ollama", ui.Error("unreachable: "+err.Error()))
			} else {
				ui.KeyValue(out, "Ollama", ui.Success("reachable"))
			}
			ui.KeyValue(out, "Breaker", client.BreakerState())

			if cfg.AI.CacheEnabled {
				n, err := ai.NewCache(db.DB()).Count(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to count cache entries: %w", err)
				}
				ui.KeyValue(out, "Cached Answers", fmt.Sprint(n))
			}

			summary := client.Metrics().Summary()
			keys := make([]string, 0, len(summary))
			for k := range summary {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			ui.Section(out, "Session Metrics")
			for _, k := range keys {
				ui.KeyValue(out, k, fmt.Sprint(summary[k]))
			}
			return nil
		},
	}
}

func newAICacheCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-cleanup",
		Short: "Drop stale, rarely used cached answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := ai.NewCache(db.DB()).Cleanup(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clean cache: %w", err)
			}
			ui.SuccessMsg(cmd.OutOrStdout(), "Removed %d cached answers", n)
			return nil
		},
	}
}
