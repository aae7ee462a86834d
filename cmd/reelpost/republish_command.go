package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelpost/internal/catalog"
	"reelpost/internal/config"
	"reelpost/internal/daemonrun"
	"reelpost/internal/services"
)

func newRepublishCommand(ctx *commandContext) *cobra.Command {
	var year uint16

	cmd := &cobra.Command{
		Use:   "republish <key|title>",
		Short: "Create or update a movie's post now, skipping the settle window",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := movieKeyFromArgs(args, year)
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				if err := cfg.ValidateDaemon(); err != nil {
					return err
				}
				movie, err := store.GetByKey(cmd.Context(), key)
				if err != nil {
					return err
				}
				if movie == nil {
					return services.Wrap(services.ErrNotFound, "cli", "republish", fmt.Sprintf("no record for %q", key), nil)
				}
				handler, err := daemonrun.NewHandler(cfg, store, ctx.cliLogger())
				if err != nil {
					return err
				}
				if err := handler.Publish(cmd.Context(), key); err != nil {
					return err
				}
				action := "Updated"
				if !movie.Posted() {
					action = "Created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s post for %s\n", action, key)
				return nil
			})
		},
	}
	cmd.Flags().Uint16Var(&year, "year", 0, "Release year when selecting by title")
	return cmd
}
