package api

import (
	"time"

	"reelpost/internal/caption"
	"reelpost/internal/catalog"
	"reelpost/internal/release"
)

// FromMovie converts a catalog record to its API representation. deepLink
// may be nil, in which case the link and caption preview are omitted.
func FromMovie(movie *catalog.Movie, deepLink func(groupID string) string) Movie {
	if movie == nil {
		return Movie{}
	}
	dto := Movie{
		Key:              movie.Key,
		Title:            movie.Title,
		Year:             movie.Year,
		GroupID:          movie.GroupID,
		PosterRef:        movie.PosterRef,
		DownstreamPostID: movie.DownstreamPostID,
		Posted:           movie.Posted(),
		Qualities:        make([]Quality, 0, len(movie.Qualities)),
		CreatedAt:        formatTime(movie.CreatedAt),
		UpdatedAt:        formatTime(movie.UpdatedAt),
	}
	for _, rec := range movie.Qualities {
		dto.Qualities = append(dto.Qualities, fromRecord(rec))
	}
	if deepLink != nil {
		dto.DeepLink = deepLink(movie.GroupID)
		dto.Caption = caption.Assemble(movie.Qualities, dto.DeepLink, movie.Title, movie.Year)
	}
	return dto
}

// FromStats converts catalog totals.
func FromStats(stats catalog.Stats) CatalogTotals {
	return CatalogTotals{
		Movies:    stats.Movies,
		Qualities: stats.Qualities,
		Posted:    stats.Posted,
	}
}

func fromRecord(rec release.Record) Quality {
	return Quality{
		FileName:     rec.RawFilename,
		FileUniqueID: rec.FileUniqueID,
		FileRef:      rec.FileRef,
		SizeBytes:    rec.SizeBytes,
		Quality:      rec.Quality,
		Resolution:   rec.Resolution,
		Codec:        rec.Codec,
		Languages:    rec.Languages,
		AudioFormat:  rec.AudioFormat,
		AudioBitrate: rec.AudioBitrate,
		HasSubtitles: rec.HasSubtitles,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
