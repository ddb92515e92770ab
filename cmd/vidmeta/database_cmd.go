package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/vidmeta/internal/config"
	"github.com/Nomadcxx/vidmeta/internal/database"
	"github.com/Nomadcxx/vidmeta/internal/ui"
)

func newDatabaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Catalog database management",
		Long: `Commands for managing the catalog database.

Examples:
  vidmeta db init     # Create or migrate the database
  vidmeta db path     # Show the database location
  vidmeta db seed     # Add sample actors and aliases`,
	}

	cmd.AddCommand(newDatabaseInitCmd())
	cmd.AddCommand(newDatabasePathCmd())
	cmd.AddCommand(newDatabaseSeedCmd())

	return cmd
}

// openCatalog opens the configured catalog.
func openCatalog() (*database.CatalogDB, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	db, err := database.OpenPath(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, cfg, nil
}

func newDatabaseInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the catalog database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := db.SchemaVersion()
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			ui.SuccessMsg(cmd.OutOrStdout(), "Database ready at %s (schema v%d)", db.Path(), v)
			return nil
		},
	}
}

func newDatabasePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show database file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path, err := cfg.DatabasePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newDatabaseSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add sample actors and aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SeedSampleData(cmd.Context()); err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}
			ui.SuccessMsg(cmd.OutOrStdout(), "Sample data added")
			return nil
		},
	}
}
