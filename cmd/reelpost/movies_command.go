package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelpost/internal/api"
	"reelpost/internal/catalog"
	"reelpost/internal/config"
)

func newMoviesCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "movies",
		Short: "List catalog records, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				movies, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					out := make([]api.Movie, 0, len(movies))
					for _, movie := range movies {
						out = append(out, api.FromMovie(movie, cfg.DeepLink))
					}
					return writeJSON(cmd, out)
				}
				if len(movies) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
					return nil
				}
				rows := make([][]string, 0, len(movies))
				for _, movie := range movies {
					rows = append(rows, []string{
						movie.Key,
						movie.Title,
						yearLabel(movie.Year),
						strconv.Itoa(len(movie.Qualities)),
						dash(movie.DownstreamPostID),
						movie.GroupID,
						movie.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Key", "Title", "Year", "Files", "Post", "Group", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
				))
				return printStats(cmd.Context(), cmd, store)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum records to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit records as JSON")
	return cmd
}

func printStats(ctx context.Context, cmd *cobra.Command, store *catalog.Store) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d movies, %d files, %d posted\n", stats.Movies, stats.Qualities, stats.Posted)
	return nil
}

func yearLabel(year uint16) string {
	if year == 0 {
		return "-"
	}
	return strconv.Itoa(int(year))
}
