package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable by every command. Credentials
// needed only by the daemon are checked by ValidateDaemon.
func (c *Config) Validate() error {
	if err := c.validateGrouping(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"telegram.poll_timeout":         c.Telegram.PollTimeout,
		"tmdb.request_timeout":          c.TMDB.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"logging.max_size_mb":           c.Logging.MaxSizeMB,
	}); err != nil {
		return err
	}
	return nil
}

// ValidateDaemon checks the settings required to poll and publish.
func (c *Config) ValidateDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	hint := c.configHint()
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required. Set BOT_TOKEN env var or edit %s", hint)
	}
	if c.Telegram.SourceChannel == "" {
		return fmt.Errorf("telegram.source_channel is required. Set SOURCE_CHANNEL env var or edit %s", hint)
	}
	if c.Telegram.DestChannel == "" {
		return fmt.Errorf("telegram.dest_channel is required. Set DEST_CHANNEL env var or edit %s", hint)
	}
	if c.Telegram.FileStoreBot == "" {
		return fmt.Errorf("telegram.file_store_bot is required. Set FILE_STORE_BOT env var or edit %s", hint)
	}
	return nil
}

func (c *Config) validateGrouping() error {
	if c.Grouping.WaitSeconds <= 0 {
		return errors.New("grouping.wait_seconds must be positive")
	}
	if c.Grouping.Workers <= 0 {
		return errors.New("grouping.workers must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("store.path must be set for the sqlite driver")
		}
	case StorePostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return errors.New("store.dsn must be set for the postgres driver (or set DATABASE_URL)")
		}
	default:
		return fmt.Errorf("store.driver: unsupported value %q", c.Store.Driver)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if _, err := url.ParseRequestURI(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url: %w", err)
	}
	if strings.TrimSpace(c.TMDB.FallbackPoster) == "" {
		return errors.New("tmdb.fallback_poster must be set")
	}
	return nil
}

func (c *Config) configHint() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath + " (create with 'reelpost config init')"
	}
	return path + " (create with 'reelpost config init')"
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
