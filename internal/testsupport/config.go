package testsupport

import (
	"path/filepath"
	"testing"

	"reelpost/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Telegram.BotToken = "123:test"
	cfgVal.Telegram.SourceChannel = "-1001"
	cfgVal.Telegram.DestChannel = "-1002"
	cfgVal.Telegram.FileStoreBot = "ReelStoreBot"
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Store.Driver = config.StoreSQLite
	cfgVal.Store.Path = filepath.Join(base, "data", "reelpost.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWaitSeconds overrides the coalescing window.
func WithWaitSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Grouping.WaitSeconds = seconds
	}
}

// WithPostgres points the catalog at the given DSN.
func WithPostgres(dsn string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Driver = config.StorePostgres
		b.cfg.Store.DSN = dsn
		b.cfg.Store.Path = ""
	}
}

// WithTelegramAPI routes Bot API calls to a test server.
func WithTelegramAPI(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telegram.APIBaseURL = baseURL
	}
}

// WithTMDBAPI routes poster lookups to a test server.
func WithTMDBAPI(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = baseURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
