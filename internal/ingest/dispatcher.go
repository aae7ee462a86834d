package ingest

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"reelpost/internal/logging"
	"reelpost/internal/release"
	"reelpost/internal/services"
)

// ErrDispatcherClosed is returned by Submit after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Merger is the part of Handler the dispatcher drives.
type Merger interface {
	Merge(ctx context.Context, rec release.Record) error
}

// MergeFunc adapts a function to Merger.
type MergeFunc func(ctx context.Context, rec release.Record) error

// Merge calls f.
func (f MergeFunc) Merge(ctx context.Context, rec release.Record) error {
	return f(ctx, rec)
}

type job struct {
	ctx context.Context
	rec release.Record
}

// Dispatcher routes records to a fixed set of workers by movie key. Records
// sharing a key always land on the same worker and merge in arrival order.
type Dispatcher struct {
	merger Merger
	logger *slog.Logger
	queues []chan job
	wg     conc.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts workers goroutines, each with a queue of depth
// records.
func NewDispatcher(merger Merger, workers, depth int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if depth <= 0 {
		depth = 16
	}
	d := &Dispatcher{
		merger: merger,
		logger: logging.NewComponentLogger(logger, "dispatcher"),
		queues: make([]chan job, workers),
	}
	for i := range d.queues {
		queue := make(chan job, depth)
		d.queues[i] = queue
		d.wg.Go(func() { d.work(queue) })
	}
	return d
}

// Workers reports the shard count.
func (d *Dispatcher) Workers() int {
	return len(d.queues)
}

// Submit extracts the upload and queues it on its key's worker. Unparseable
// uploads are rejected before queueing. Submit blocks while the worker queue
// is full and returns ctx.Err() if ctx ends first.
func (d *Dispatcher) Submit(ctx context.Context, up Upload) error {
	if up.UpdateID != 0 {
		ctx = services.WithUpdateID(ctx, up.UpdateID)
	}
	rec := up.Record()
	if !rec.Parsed() {
		return services.Wrap(services.ErrUnparseable, "ingest", "extract", "no title in file name", nil)
	}
	return d.SubmitRecord(ctx, rec)
}

// SubmitRecord queues an already extracted record.
func (d *Dispatcher) SubmitRecord(ctx context.Context, rec release.Record) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	queue := d.queues[d.shard(rec.Key())]
	select {
	case queue <- job{ctx: context.WithoutCancel(ctx), rec: rec}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting records, drains queued ones and waits for workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, queue := range d.queues {
		close(queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.queues)))
}

func (d *Dispatcher) work(queue <-chan job) {
	for j := range queue {
		var catcher panics.Catcher
		var err error
		catcher.Try(func() { err = d.merger.Merge(j.ctx, j.rec) })
		if recovered := catcher.Recovered(); recovered != nil {
			err = services.Wrap(services.ErrInvariant, "ingest", "merge", "merge panicked", recovered.AsError())
		}
		if err != nil {
			Accept(services.WithMovieKey(j.ctx, j.rec.Key()), d.logger, j.rec.RawFilename, err)
		}
	}
}

// Accept logs the outcome of an upload at the ingest boundary. Dropped names
// log at info; every other failure logs at error with its kind.
func Accept(ctx context.Context, logger *slog.Logger, fileName string, err error) {
	if err == nil {
		return
	}
	logger = logging.WithContext(ctx, logger)
	if errors.Is(err, services.ErrUnparseable) {
		logger.Info("upload dropped",
			logging.String("file_name", fileName),
			logging.String("reason", "no title"),
		)
		return
	}
	logging.ErrorWithContext(logger, "upload not merged", "merge_failed",
		logging.String("file_name", fileName),
		logging.Error(err),
		logging.ErrorKind(err),
		logging.String(logging.FieldImpact, "file missing from its movie post until re-uploaded"),
	)
}
