package preflight

import (
	"context"
	"log/slog"

	"reelpost/internal/config"
	"reelpost/internal/poster/tmdb"
	"reelpost/internal/telegram"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// RunAll executes every preflight check for the given config.
// TMDB is only checked when an API key is configured; without one the
// daemon posts the fallback poster.
func RunAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckStore(cfg),
	}

	if client, err := telegram.NewClient(cfg.Telegram, logger, telegram.WithRetryAttempts(1)); err != nil {
		results = append(results, Result{Name: "Telegram", Detail: err.Error()})
	} else {
		results = append(results, CheckTelegram(ctx, client, cfg.Telegram.FileStoreBot))
	}

	if cfg.TMDB.APIKey == "" {
		results = append(results, Result{Name: "TMDB", Passed: true, Detail: "no api key (fallback poster only)"})
	} else if client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language); err != nil {
		results = append(results, Result{Name: "TMDB", Detail: err.Error()})
	} else {
		results = append(results, CheckTMDB(ctx, client))
	}

	return results
}
