package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/vidmeta/internal/database"
	"github.com/Nomadcxx/vidmeta/internal/ui"
)

func newVideosCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List stored video records",
		Long: `List catalog records, most recently updated first.

Examples:
  vidmeta videos
  vidmeta videos --limit 200 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}

			db, _, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			videos, err := db.ListVideos(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list videos: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if videos == nil {
					videos = []database.VideoRecord{}
				}
				return printJSON(out, videos)
			}
			if len(videos) == 0 {
				ui.InfoMsg(out, "No videos recorded yet (try 'vidmeta process <dir>')")
				return nil
			}

			tbl := ui.NewTable("ID", "Code", "Title", "Standardized Name", "File", "Updated")
			for _, v := range videos {
				tbl.AddRow(
					strconv.FormatInt(v.ID, 10),
					v.Code,
					v.Title,
					v.StandardizedFilename,
					filepath.Base(v.Filepath),
					ui.FormatAge(v.UpdatedAt),
				)
			}
			tbl.Render(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "maximum records to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}
