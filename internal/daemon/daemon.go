package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/sourcegraph/conc"

	"reelpost/internal/catalog"
	"reelpost/internal/coalesce"
	"reelpost/internal/config"
	"reelpost/internal/ingest"
	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/release"
	"reelpost/internal/services"
	"reelpost/internal/telegram"
)

const dispatchQueueDepth = 64

// Components are the collaborators the daemon drives. Store, Updates and
// Publisher are required.
type Components struct {
	Store     *catalog.Store
	Updates   telegram.UpdateSource
	Publisher ingest.Publisher
	Posters   ingest.PosterLookup
	Notifier  notifications.Service
}

// Daemon owns the ingest pipeline and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *catalog.Store
	handler    *ingest.Handler
	coord      *coalesce.Coordinator
	dispatcher *ingest.Dispatcher
	poller     *telegram.Poller
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	stopped bool
	started atomic.Int64
	cancel  context.CancelFunc
	wg      *conc.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	Pending      int
	InFlight     int
	PollOffset   int64
	StoreDriver  string
	StoreTarget  string
	LockFilePath string
	Catalog      catalog.Stats
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, comps Components, pollOpts ...telegram.PollerOption) (*Daemon, error) {
	if cfg == nil || comps.Store == nil || comps.Updates == nil || comps.Publisher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "new", "config, store, update source and publisher are required", nil)
	}
	handler := ingest.NewHandler(ingest.Deps{
		Store:     comps.Store,
		Posters:   comps.Posters,
		Publisher: comps.Publisher,
		Notifier:  comps.Notifier,
		DeepLink:  cfg.DeepLink,
		Logger:    logger,
	})
	coord, err := coalesce.New(cfg.WaitWindow(), handler.Fire, logger)
	if err != nil {
		return nil, err
	}
	handler.SetScheduler(coord)

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    comps.Store,
		handler:  handler,
		coord:    coord,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.dispatcher = ingest.NewDispatcher(ingest.MergeFunc(d.merge), cfg.Grouping.Workers, dispatchQueueDepth, logger)
	d.poller = telegram.NewPoller(comps.Updates, cfg.Telegram.SourceChannel, cfg.Telegram.PollTimeout, logger, pollOpts...)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, reschedules unposted records and begins
// polling.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if d.stopped {
		return errors.New("daemon cannot be restarted after stop")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelpost daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.wg = conc.NewWaitGroup()
	d.started.Store(time.Now().UnixNano())
	d.running.Store(true)

	d.rescheduleUnposted(runCtx)
	d.wg.Go(func() {
		if err := d.poller.Run(runCtx, d.accept); err != nil {
			d.logger.Error("poller stopped", logging.Error(err))
		}
	})

	d.logger.Info("reelpost daemon started",
		logging.String("lock", d.lockPath),
		logging.Duration("wait_window", d.coord.Window()),
		logging.Int("workers", d.dispatcher.Workers()),
		logging.String("store", d.store.Target()),
	)
	return nil
}

// Stop halts intake, drains queued merges and waits up to ctx for in-flight
// publishes. Armed windows are discarded.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return nil
	}

	d.cancel()
	d.wg.Wait()
	d.dispatcher.Close()
	pending := d.coord.Pending()
	closeErr := d.coord.Close(ctx)
	d.api.stop()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.stopped = true
	d.logger.Info("reelpost daemon stopped",
		logging.Int("discarded_windows", pending),
	)
	if closeErr != nil {
		return fmt.Errorf("wait for in-flight publishes: %w", closeErr)
	}
	return nil
}

// Close stops the daemon and releases the catalog.
func (d *Daemon) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stopErr := d.Stop(ctx)
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			return err
		}
	}
	return stopErr
}

// Address reports the API listener address, or "" when the API is off.
func (d *Daemon) Address() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return Status{}, err
	}
	var started time.Time
	if nanos := d.started.Load(); nanos > 0 {
		started = time.Unix(0, nanos)
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    started,
		Pending:      d.coord.Pending(),
		InFlight:     d.coord.InFlight(),
		PollOffset:   d.poller.Offset(),
		StoreDriver:  d.store.Driver(),
		StoreTarget:  d.store.Target(),
		LockFilePath: d.lockPath,
		Catalog:      stats,
	}, nil
}

func (d *Daemon) accept(ctx context.Context, up telegram.Upload) {
	err := d.dispatcher.Submit(ctx, ingest.Upload{
		UpdateID:     up.UpdateID,
		FileName:     up.FileName,
		SizeBytes:    up.SizeBytes,
		FileUniqueID: up.FileUniqueID,
		FileRef:      up.FileRef,
		Caption:      up.Caption,
	})
	if err != nil && ctx.Err() != nil {
		d.logger.Warn("upload not queued before shutdown",
			logging.Int64(logging.FieldUpdateID, up.UpdateID),
			logging.String("file_name", up.FileName),
			logging.String(logging.FieldImpact, "file must be re-uploaded"),
		)
		return
	}
	ingest.Accept(services.WithUpdateID(ctx, up.UpdateID), d.logger, up.FileName, err)
}

func (d *Daemon) merge(ctx context.Context, rec release.Record) error {
	_, err := d.handler.Merge(ctx, rec)
	return err
}

// rescheduleUnposted arms a window for every record whose first post never
// went out, such as one whose window was discarded by a previous shutdown.
func (d *Daemon) rescheduleUnposted(ctx context.Context) {
	keys, err := d.store.UnpostedKeys(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "could not list unposted records", "reschedule_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "unposted movies wait for their next arrival"),
		)
		return
	}
	for _, key := range keys {
		d.coord.Schedule(key)
	}
	if len(keys) > 0 {
		d.logger.Info("rescheduled unposted records", logging.Int("count", len(keys)))
	}
}
