package poster

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/poster/tmdb"
	"reelpost/internal/services"
)

const (
	lookupAttempts = 3
	lookupDelay    = 500 * time.Millisecond
)

// Service looks up posters, falling back to a fixed image.
type Service struct {
	searcher  tmdb.Searcher
	imageBase string
	fallback  string
	logger    *slog.Logger
	attempts  uint
	delay     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithSearcher replaces the TMDB client, mainly for tests.
func WithSearcher(searcher tmdb.Searcher) Option {
	return func(s *Service) {
		s.searcher = searcher
	}
}

// WithRetry overrides the retry attempts and base delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.attempts = attempts
		}
		s.delay = delay
	}
}

// New builds a Service from configuration. Without a TMDB API key every
// lookup yields the fallback image.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		imageBase: strings.TrimRight(cfg.TMDB.ImageBaseURL, "/"),
		fallback:  cfg.TMDB.FallbackPoster,
		logger:    logging.NewComponentLogger(logger, "poster"),
		attempts:  lookupAttempts,
		delay:     lookupDelay,
	}
	if strings.TrimSpace(cfg.TMDB.APIKey) != "" {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
			tmdb.WithTimeout(time.Duration(cfg.TMDB.RequestTimeout)*time.Second))
		if err != nil {
			svc.logger.Warn("tmdb client disabled",
				logging.Error(err),
				logging.String(logging.FieldEventType, "tmdb_disabled"),
				logging.String(logging.FieldImpact, "all posts use the fallback poster"),
			)
		} else {
			svc.searcher = client
		}
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Fallback returns the image used when no poster is found.
func (s *Service) Fallback() string {
	return s.fallback
}

// Lookup returns the poster for title/year; year zero means unknown.
func (s *Service) Lookup(ctx context.Context, title string, year uint16) string {
	if s.searcher == nil || strings.TrimSpace(title) == "" {
		return s.fallback
	}
	logger := logging.WithContext(ctx, s.logger)

	var resp *tmdb.Response
	err := retry.Do(
		func() error {
			var searchErr error
			resp, searchErr = s.searcher.SearchMovie(ctx, title, tmdb.SearchOptions{Year: int(year)})
			return searchErr
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(temporary),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		err = services.Wrap(services.ErrTransient, "poster", "lookup", title, err)
		logger.Warn("tmdb lookup failed; using fallback poster",
			logging.String("title", title),
			logging.Int("year", int(year)),
			logging.Error(err),
			logging.ErrorKind(err),
			logging.String(logging.FieldEventType, "poster_lookup_failed"),
			logging.String(logging.FieldErrorHint, "check tmdb.api_key and network access"),
		)
		return s.fallback
	}

	best, ok := BestMatch(resp.Results, year)
	if !ok {
		logger.Info("tmdb returned no results; using fallback poster",
			logging.String("title", title),
			logging.Int("year", int(year)),
		)
		return s.fallback
	}
	if strings.TrimSpace(best.PosterPath) == "" {
		logger.Info("tmdb match has no poster; using fallback poster",
			logging.String("title", best.Title),
			logging.Int64("tmdb_id", best.ID),
		)
		return s.fallback
	}
	ref := s.imageBase + best.PosterPath
	logger.Info("tmdb poster found",
		logging.String("title", best.Title),
		logging.Int64("tmdb_id", best.ID),
		logging.String("poster", ref),
	)
	return ref
}

// BestMatch picks the first result released in year, else the first result.
func BestMatch(results []tmdb.Result, year uint16) (tmdb.Result, bool) {
	if len(results) == 0 {
		return tmdb.Result{}, false
	}
	if year != 0 {
		prefix := strconv.Itoa(int(year))
		for _, result := range results {
			if strings.HasPrefix(result.ReleaseDate, prefix) {
				return result, true
			}
		}
	}
	return results[0], true
}

// temporary retries network faults, throttling and server errors; client
// errors such as a bad API key are final.
func temporary(err error) bool {
	var statusErr *tmdb.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
