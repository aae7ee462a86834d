// Package daemonrun wires production collaborators and runs the daemon until
// it is signalled to stop.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"reelpost/internal/catalog"
	"reelpost/internal/config"
	"reelpost/internal/daemon"
	"reelpost/internal/ingest"
	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/poster"
	"reelpost/internal/telegram"
)

const shutdownTimeout = 30 * time.Second

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the reelpost daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.ValidateDaemon(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(cfg, true)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog", logging.Error(err))
		return err
	}

	client, err := telegram.NewClient(cfg.Telegram, logger)
	if err != nil {
		_ = store.Close()
		return err
	}
	logBotIdentity(signalCtx, logger, client)

	d, err := daemon.New(cfg, logger, daemon.Components{
		Store:     store,
		Updates:   client,
		Publisher: telegram.NewPublisher(client, cfg.Telegram.DestChannel, logger),
		Posters:   poster.New(cfg, logger),
		Notifier:  notifications.NewService(cfg),
	})
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}

	pidPath := cfg.LockPath() + ".pid"
	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		logger.Warn("write pid file", logging.Error(err))
	}
	defer os.Remove(pidPath)

	if err := d.Start(signalCtx); err != nil {
		_ = d.Close()
		return err
	}
	logConfigSnapshot(logger, cfg)

	<-signalCtx.Done()
	logger.Info("reelpost daemon shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		logging.WarnWithContext(logger, "shutdown incomplete", "shutdown_timeout",
			logging.Error(err),
			logging.String(logging.FieldImpact, "in-flight posts may be missing their latest files"),
		)
	}
	return d.Close()
}

// NewHandler builds an ingest handler publishing to the destination channel,
// for one-shot commands that run outside the daemon.
func NewHandler(cfg *config.Config, store ingest.Store, logger *slog.Logger) (*ingest.Handler, error) {
	client, err := telegram.NewClient(cfg.Telegram, logger)
	if err != nil {
		return nil, err
	}
	return ingest.NewHandler(ingest.Deps{
		Store:     store,
		Posters:   poster.New(cfg, logger),
		Publisher: telegram.NewPublisher(client, cfg.Telegram.DestChannel, logger),
		Notifier:  notifications.NewService(cfg),
		DeepLink:  cfg.DeepLink,
		Logger:    logger,
	}), nil
}

func logBotIdentity(ctx context.Context, logger *slog.Logger, client *telegram.Client) {
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	me, err := client.GetMe(checkCtx)
	if err != nil {
		logging.WarnWithContext(logger, "bot identity check failed", "bot_identity_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify telegram.bot_token"),
			logging.String(logging.FieldImpact, "polling will keep retrying"),
		)
		return
	}
	logger.Info("bot identity", logging.String("username", me.Username), logging.Int64("bot_id", me.ID))
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("config snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("source_channel", cfg.Telegram.SourceChannel),
		logging.String("dest_channel", cfg.Telegram.DestChannel),
		logging.String("file_store_bot", cfg.Telegram.FileStoreBot),
		logging.Int("wait_seconds", cfg.Grouping.WaitSeconds),
		logging.Int("workers", cfg.Grouping.Workers),
		logging.String("store_driver", cfg.Store.Driver),
		logging.Bool("tmdb_key_present", strings.TrimSpace(cfg.TMDB.APIKey) != ""),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("api_bind", cfg.Paths.APIBind),
	)
}
