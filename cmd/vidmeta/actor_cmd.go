package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/vidmeta/internal/database"
	"github.com/Nomadcxx/vidmeta/internal/ui"
)

func newActorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actor",
		Short: "Manage the performer registry",
		Long: `Register performers and the alternative spellings that resolve to them.
Lookups are exact: canonical names first, then aliases.

Examples:
  vidmeta actor add "Jane Smith"
  vidmeta actor alias 2 "J. Smith"
  vidmeta actor list`,
	}

	cmd.AddCommand(newActorAddCmd())
	cmd.AddCommand(newActorAliasCmd())
	cmd.AddCommand(newActorListCmd())

	return cmd
}

func newActorAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Register a performer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := db.AddActor(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to add actor: %w", err)
			}
			ui.SuccessMsg(cmd.OutOrStdout(), "Actor %q has id %d", strings.TrimSpace(args[0]), id)
			return nil
		},
	}
}

func newActorAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alias <actor-id> <alias>",
		Short: "Attach an alias to a performer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid actor id %q", args[0])
			}

			db, _, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			err = db.AddAlias(cmd.Context(), id, args[1])
			switch {
			case errors.Is(err, database.ErrActorNotFound):
				return fmt.Errorf("no actor with id %d", id)
			case errors.Is(err, database.ErrAliasTaken):
				return fmt.Errorf("alias %q already belongs to another actor", args[1])
			case err != nil:
				return fmt.Errorf("failed to add alias: %w", err)
			}

			name, _, err := db.LookupNameByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			ui.SuccessMsg(cmd.OutOrStdout(), "%q now resolves to %s", strings.TrimSpace(args[1]), name)
			return nil
		},
	}
}

func newActorListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List performers with their aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			actors, err := db.ListActorsWithAliases(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list actors: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if actors == nil {
					actors = []database.Actor{}
				}
				return printJSON(out, actors)
			}
			if len(actors) == 0 {
				ui.InfoMsg(out, "No actors registered (try 'vidmeta db seed')")
				return nil
			}

			tbl := ui.NewTable("ID", "Name", "Aliases")
			for _, a := range actors {
				tbl.AddRow(strconv.FormatInt(a.ID, 10), a.Name, strings.Join(a.Aliases, ", "))
			}
			tbl.Render(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}
