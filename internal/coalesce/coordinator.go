package coalesce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"

	"reelpost/internal/logging"
	"reelpost/internal/services"
)

// FireFunc handles a settled key. It must re-read authoritative state rather
// than rely on anything captured at schedule time.
type FireFunc func(ctx context.Context, key string)

// Coordinator owns the per-key timer table.
type Coordinator struct {
	window time.Duration
	fire   FireFunc
	logger *slog.Logger

	slots sync.Map // key -> *slot

	// life orders Close against fires being added to the wait group.
	life     sync.RWMutex
	closed   atomic.Bool
	fires    sync.WaitGroup
	inFlight atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

// slot is the timer state for one key. Every field is guarded by mu.
type slot struct {
	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	firing bool
	refire bool
	dead   bool
}

// New builds a coordinator that calls fire once per settled window.
func New(window time.Duration, fire FireFunc, logger *slog.Logger) (*Coordinator, error) {
	if window <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "coalesce", "new", fmt.Sprintf("window must be positive, got %s", window), nil)
	}
	if fire == nil {
		return nil, services.Wrap(services.ErrConfiguration, "coalesce", "new", "fire func is required", nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		window: window,
		fire:   fire,
		logger: logging.NewComponentLogger(logger, "coalesce"),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Window reports the configured settle window.
func (c *Coordinator) Window() time.Duration {
	return c.window
}

// Schedule arms key to fire one window from now, replacing any armed timer.
// A fire already running is left alone; this arrival gets its own window.
// It returns false after Close.
func (c *Coordinator) Schedule(key string) bool {
	c.life.RLock()
	defer c.life.RUnlock()
	if c.closed.Load() {
		return false
	}

	for {
		value, _ := c.slots.LoadOrStore(key, &slot{})
		s := value.(*slot)
		s.mu.Lock()
		if s.dead {
			s.mu.Unlock()
			continue
		}
		rearm := s.timer != nil
		if rearm {
			s.timer.Stop()
		}
		s.gen++
		gen := s.gen
		s.refire = false
		s.timer = time.AfterFunc(c.window, func() { c.expire(key, s, gen) })
		firing := s.firing
		s.mu.Unlock()

		c.logger.Debug("window armed",
			logging.String(logging.FieldMovieKey, key),
			logging.Bool("rearmed", rearm),
			logging.Bool("fire_in_flight", firing),
			logging.Duration("window", c.window),
		)
		return true
	}
}

func (c *Coordinator) expire(key string, s *slot, gen uint64) {
	c.life.RLock()
	defer c.life.RUnlock()
	if c.closed.Load() {
		return
	}

	s.mu.Lock()
	if s.gen != gen || s.timer == nil {
		// Superseded by a later Schedule whose Stop lost the race.
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if s.firing {
		s.refire = true
		s.mu.Unlock()
		c.logger.Debug("window settled during fire; queued follow-up",
			logging.String(logging.FieldMovieKey, key))
		return
	}
	s.firing = true
	s.mu.Unlock()

	c.fires.Add(1)
	go c.run(key, s)
}

func (c *Coordinator) run(key string, s *slot) {
	defer c.fires.Done()
	for {
		c.invoke(key)

		s.mu.Lock()
		if s.refire && !c.closed.Load() {
			s.refire = false
			s.mu.Unlock()
			continue
		}
		s.refire = false
		s.firing = false
		if s.timer == nil {
			s.dead = true
			c.slots.CompareAndDelete(key, s)
		}
		s.mu.Unlock()
		return
	}
}

func (c *Coordinator) invoke(key string) {
	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	ctx := services.WithMovieKey(c.ctx, key)
	start := time.Now()
	var catcher panics.Catcher
	catcher.Try(func() { c.fire(ctx, key) })
	if recovered := catcher.Recovered(); recovered != nil {
		err := services.Wrap(services.ErrInvariant, "coalesce", "fire", key, recovered.AsError())
		c.logger.Error("fire panicked",
			logging.String(logging.FieldMovieKey, key),
			logging.Error(err),
			logging.ErrorKind(err),
			logging.String(logging.FieldImpact, "post for this movie not updated until next arrival"),
		)
		return
	}
	c.logger.Debug("fire completed",
		logging.String(logging.FieldMovieKey, key),
		logging.Duration("elapsed", time.Since(start)),
	)
}

// Pending reports how many keys have an armed window.
func (c *Coordinator) Pending() int {
	count := 0
	c.slots.Range(func(_, value any) bool {
		s := value.(*slot)
		s.mu.Lock()
		if s.timer != nil {
			count++
		}
		s.mu.Unlock()
		return true
	})
	return count
}

// InFlight reports how many fires are currently executing.
func (c *Coordinator) InFlight() int {
	return int(c.inFlight.Load())
}

// Close discards armed windows and waits for in-flight fires to return. If
// ctx ends first, in-flight fires see their context canceled and Close
// returns ctx.Err().
func (c *Coordinator) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.life.Lock()
	if c.closed.Load() {
		c.life.Unlock()
		return nil
	}
	c.closed.Store(true)
	c.life.Unlock()

	discarded := 0
	c.slots.Range(func(_, value any) bool {
		s := value.(*slot)
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
			discarded++
		}
		s.refire = false
		s.mu.Unlock()
		return true
	})
	if discarded > 0 {
		c.logger.Info("discarded armed windows", logging.Int("count", discarded))
	}

	done := make(chan struct{})
	go func() {
		c.fires.Wait()
		close(done)
	}()
	defer c.cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
