package daemon_test

import (
	"reelpost/internal/catalog"
	"reelpost/internal/release"
)

func catalogParams(rec release.Record) catalog.UpsertParams {
	return catalog.UpsertParams{
		Key:     rec.Key(),
		Title:   rec.Title,
		Year:    rec.Year,
		GroupID: "seed00000001",
		Quality: rec,
	}
}
