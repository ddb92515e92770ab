package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/vidmeta/internal/activity"
	"github.com/Nomadcxx/vidmeta/internal/app"
	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/ui"
)

func newActivityCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recently processed files",
		Long: `Show the processing trail, newest first.

Every processed file leaves one entry, including dry runs and failures.

Examples:
  vidmeta activity
  vidmeta activity --limit 100 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			trail, err := app.InitActivity(cfg, logging.Nop())
			if err != nil {
				return err
			}
			if trail == nil {
				ui.InfoMsg(out, "Activity trail is disabled (activity.enabled = false)")
				return nil
			}
			defer trail.Close()

			entries, err := trail.GetRecentEntries(limit)
			if err != nil {
				return fmt.Errorf("failed to read activity: %w", err)
			}

			if asJSON {
				if entries == nil {
					entries = []activity.Entry{}
				}
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				ui.InfoMsg(out, "No activity recorded yet")
				return nil
			}

			tbl := ui.NewTable("When", "Status", "Method", "File", "Standardized Name", "Actors")
			for _, e := range entries {
				tbl.AddRow(
					ui.FormatAge(e.Timestamp),
					entryStatus(e),
					string(e.Method),
					filepath.Base(e.Path),
					e.StandardizedName,
					strings.Join(e.Actors, ", "),
				)
			}
			tbl.Render(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func entryStatus(e activity.Entry) string {
	switch {
	case !e.Success:
		return ui.Error("failed")
	case e.DryRun:
		return ui.Dim("dry-run")
	default:
		return ui.Success("ok")
	}
}
