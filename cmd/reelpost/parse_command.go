package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelpost/internal/caption"
	"reelpost/internal/release"
	"reelpost/internal/textutil"
)

func newParseCommand() *cobra.Command {
	var size uint64
	var uploaderCaption string
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "parse <filename>...",
		Short:       "Show what the extractor reads from release filenames",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			records := make([]release.Record, 0, len(args))
			for _, name := range args {
				records = append(records, release.Extract(name, size, release.WithCaption(uploaderCaption)))
			}
			if asJSON {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			for i, rec := range records {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, renderRecord(rec))
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&size, "size", 0, "File size in bytes")
	cmd.Flags().StringVar(&uploaderCaption, "caption", "", "Uploader caption to attach")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit records as JSON")
	return cmd
}

func renderRecord(rec release.Record) string {
	if !rec.Parsed() {
		return fmt.Sprintf("%s\n  no title found; this upload would be dropped", rec.RawFilename)
	}
	year := "-"
	if rec.Year > 0 {
		year = strconv.Itoa(int(rec.Year))
	}
	rows := [][]string{
		{"Title", rec.Title},
		{"Year", year},
		{"Key", rec.Key()},
		{"Quality", dash(rec.Quality)},
		{"Resolution", dash(rec.Resolution)},
		{"Codec", dash(rec.Codec)},
		{"Languages", dash(strings.Join(rec.Languages, ", "))},
		{"Audio", dash(strings.TrimSpace(rec.AudioFormat + " " + rec.AudioBitrate))},
		{"Subtitles", yesNo(rec.HasSubtitles)},
		{"Extension", dash(rec.Extension)},
		{"Size", dash(sizeLabel(rec.SizeBytes))},
		{"Caption line", caption.Line(rec)},
	}
	return rec.RawFilename + "\n" + renderTable([]string{"Field", "Value"}, rows, nil)
}

func sizeLabel(size uint64) string {
	if size == 0 {
		return ""
	}
	return textutil.HumanSize(size)
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
