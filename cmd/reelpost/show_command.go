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

func newShowCommand(ctx *commandContext) *cobra.Command {
	var year uint16
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <key|title>",
		Short: "Show a movie record and the caption its post would carry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := movieKeyFromArgs(args, year)
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				movie, err := store.GetByKey(cmd.Context(), key)
				if err != nil {
					return err
				}
				if movie == nil {
					return services.Wrap(services.ErrNotFound, "cli", "show", fmt.Sprintf("no record for %q", key), nil)
				}
				dto := api.FromMovie(movie, cfg.DeepLink)
				if asJSON {
					return writeJSON(cmd, dto)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderMovie(dto))
				return nil
			})
		},
	}
	cmd.Flags().Uint16Var(&year, "year", 0, "Release year when selecting by title")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the record as JSON")
	return cmd
}

func renderMovie(movie api.Movie) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", movie.Title, yearLabel(movie.Year))
	fmt.Fprintf(&b, "  key:      %s\n", movie.Key)
	fmt.Fprintf(&b, "  group:    %s\n", movie.GroupID)
	fmt.Fprintf(&b, "  link:     %s\n", movie.DeepLink)
	fmt.Fprintf(&b, "  poster:   %s\n", dash(movie.PosterRef))
	fmt.Fprintf(&b, "  post:     %s\n", dash(movie.DownstreamPostID))
	fmt.Fprintf(&b, "  updated:  %s\n", dash(movie.UpdatedAt))

	rows := make([][]string, 0, len(movie.Qualities))
	for _, q := range movie.Qualities {
		rows = append(rows, []string{
			q.FileName,
			dash(q.Resolution),
			dash(q.Quality),
			dash(strings.Join(q.Languages, ", ")),
			dash(sizeLabel(q.SizeBytes)),
		})
	}
	b.WriteString(renderTable([]string{"File", "Res", "Quality", "Languages", "Size"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}))
	b.WriteString("\n\nCaption preview:\n")
	b.WriteString(movie.Caption)
	b.WriteString("\n")
	return b.String()
}
