package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/vidmeta/internal/naming"
	"github.com/Nomadcxx/vidmeta/internal/ui"
)

func newParseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <filename>...",
		Short: "Show the facts recoverable from filenames",
		Long: `Parse filenames without touching the filesystem or the catalog.

Examples:
  vidmeta parse "[ABC-123] My Title - Actor A, Actor B.mp4"
  vidmeta parse --json *.mkv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]naming.ParsedFilename, len(args))
			for i, name := range args {
				results[i] = naming.ParseFilename(name)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, results)
			}

			for _, r := range results {
				fmt.Fprintln(out, ui.Path(r.OriginalFilename))
				if r.IsEmpty() {
					fmt.Fprintln(out, "  "+ui.Dim("(nothing recognized)"))
					continue
				}
				ui.KeyValue(out, "Code", valueOrDash(ui.Code(r.Code), r.Code))
				ui.KeyValue(out, "Title", valueOrDash(r.Title, r.Title))
				actors := strings.Join(r.Actors, ", ")
				ui.KeyValue(out, "Actors", valueOrDash(ui.Actor(actors), actors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

// valueOrDash returns styled unless raw is empty.
func valueOrDash(styled, raw string) string {
	if raw == "" {
		return ui.Dim("-")
	}
	return styled
}
