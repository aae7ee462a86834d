package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelpost/internal/api"
	"reelpost/internal/catalog"
	"reelpost/internal/config"
	"reelpost/internal/services"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <groupID>",
		Short: "List the files a deep-link group id resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				movie, err := store.GetByGroupID(cmd.Context(), groupID)
				if err != nil {
					return err
				}
				if movie == nil {
					return services.Wrap(services.ErrNotFound, "cli", "resolve", fmt.Sprintf("no group %q", groupID), nil)
				}
				dto := api.FromMovie(movie, cfg.DeepLink)
				if asJSON {
					return writeJSON(cmd, dto)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", dto.Title, yearLabel(dto.Year))
				rows := make([][]string, 0, len(dto.Qualities))
				for _, q := range dto.Qualities {
					rows = append(rows, []string{q.FileUniqueID, q.FileRef, q.FileName})
				}
				fmt.Fprintln(out, renderTable([]string{"Unique ID", "File Ref", "File"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the group as JSON")
	return cmd
}
