package config

const (
	defaultConfigPath         = "~/.config/reelpost/config.toml"
	defaultDataDir            = "~/.local/share/reelpost"
	defaultLogDir             = "~/.local/share/reelpost/logs"
	defaultAPIBind            = "127.0.0.1:7488"
	defaultTelegramAPIBaseURL = "https://api.telegram.org"
	defaultPollTimeout        = 30
	defaultRequestsPerSecond  = 20
	defaultTMDBBaseURL        = "https://api.themoviedb.org/3"
	defaultTMDBLanguage       = "en-US"
	defaultTMDBImageBaseURL   = "https://image.tmdb.org/t/p/w500"
	defaultFallbackPoster     = "https://i.imgur.com/4eDKRcS.jpeg"
	defaultTMDBRequestTimeout = 15
	defaultWaitSeconds        = 30
	defaultWorkers            = 8
	defaultStoreFile          = "reelpost.db"
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 50
	defaultLogMaxBackups      = 5
	defaultLogMaxAgeDays      = 30
)

// Catalog drivers accepted by store.driver.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Telegram: Telegram{
			APIBaseURL:        defaultTelegramAPIBaseURL,
			PollTimeout:       defaultPollTimeout,
			RequestsPerSecond: defaultRequestsPerSecond,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			ImageBaseURL:   defaultTMDBImageBaseURL,
			FallbackPoster: defaultFallbackPoster,
			RequestTimeout: defaultTMDBRequestTimeout,
		},
		Grouping: Grouping{
			WaitSeconds: defaultWaitSeconds,
			Workers:     defaultWorkers,
		},
		Store: Store{
			Driver: StoreSQLite,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Posts:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
