package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeTelegram()
	if err := c.normalizeTMDB(); err != nil {
		return err
	}
	if err := c.normalizeGrouping(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeTelegram() {
	c.Telegram.BotToken = envFallback(c.Telegram.BotToken, "BOT_TOKEN")
	c.Telegram.SourceChannel = envFallback(c.Telegram.SourceChannel, "SOURCE_CHANNEL")
	c.Telegram.DestChannel = envFallback(c.Telegram.DestChannel, "DEST_CHANNEL")
	c.Telegram.FileStoreBot = strings.TrimPrefix(envFallback(c.Telegram.FileStoreBot, "FILE_STORE_BOT"), "@")
	c.Telegram.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Telegram.APIBaseURL), "/")
	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = defaultTelegramAPIBaseURL
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = defaultPollTimeout
	}
	if c.Telegram.RequestsPerSecond <= 0 {
		c.Telegram.RequestsPerSecond = defaultRequestsPerSecond
	}
}

func (c *Config) normalizeTMDB() error {
	c.TMDB.APIKey = envFallback(c.TMDB.APIKey, "TMDB_API_KEY")
	c.TMDB.Language = envFallback(c.TMDB.Language, "TMDB_LANGUAGE")
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	c.TMDB.FallbackPoster = envFallback(c.TMDB.FallbackPoster, "FALLBACK_POSTER")
	if c.TMDB.FallbackPoster == "" {
		c.TMDB.FallbackPoster = defaultFallbackPoster
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.ImageBaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.ImageBaseURL), "/")
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
	return nil
}

func (c *Config) normalizeGrouping() error {
	if value, ok := os.LookupEnv("GROUP_WAIT_SECONDS"); ok && strings.TrimSpace(value) != "" {
		seconds, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("GROUP_WAIT_SECONDS: %w", err)
		}
		c.Grouping.WaitSeconds = seconds
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = envFallback(c.Paths.APIToken, "REELPOST_API_TOKEN")
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Store.DSN = envFallback(c.Store.DSN, "DATABASE_URL")
	switch c.Store.Driver {
	case "", "sqlite3":
		c.Store.Driver = StoreSQLite
	case "pgx", "postgresql":
		c.Store.Driver = StorePostgres
	}
	if c.Store.Driver != StoreSQLite {
		return nil
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = filepath.Join(c.Paths.DataDir, defaultStoreFile)
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = envFallback(c.Notifications.NtfyTopic, "NTFY_TOPIC")
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(envFallback(c.Logging.Level, "LOG_LEVEL"))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

// applyEnvDefaults replaces built-in defaults with environment values before
// the file is decoded, so the file still wins over the environment for
// fields that Default already fills in.
func (c *Config) applyEnvDefaults() {
	c.TMDB.Language = envDefault(c.TMDB.Language, "TMDB_LANGUAGE")
	c.TMDB.FallbackPoster = envDefault(c.TMDB.FallbackPoster, "FALLBACK_POSTER")
	c.Logging.Level = envDefault(c.Logging.Level, "LOG_LEVEL")
}

// envDefault returns the named environment variable when it is set and not
// blank, otherwise value.
func envDefault(value, envKey string) string {
	if env := strings.TrimSpace(os.Getenv(envKey)); env != "" {
		return env
	}
	return value
}

// envFallback returns the trimmed value, or the named environment variable
// when the value is blank.
func envFallback(value, envKey string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(envKey); ok {
		return strings.TrimSpace(env)
	}
	return ""
}
