package coalesce_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelpost/internal/coalesce"
	"reelpost/internal/logging"
	"reelpost/internal/services"
)

type recorder struct {
	mu       sync.Mutex
	fires    map[string]int
	active   map[string]int
	overlaps int
	hook     func(ctx context.Context, key string)
}

func newRecorder() *recorder {
	return &recorder{fires: map[string]int{}, active: map[string]int{}}
}

func (r *recorder) fire(ctx context.Context, key string) {
	r.mu.Lock()
	r.fires[key]++
	r.active[key]++
	if r.active[key] > 1 {
		r.overlaps++
	}
	hook := r.hook
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.active[key]--
		r.mu.Unlock()
	}()
	if hook != nil {
		hook(ctx, key)
	}
}

func (r *recorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fires[key]
}

func (r *recorder) overlapCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlaps
}

func newCoordinator(t *testing.T, window time.Duration, rec *recorder) *coalesce.Coordinator {
	t.Helper()
	coord, err := coalesce.New(window, rec.fire, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = coord.Close(ctx)
	})
	return coord
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := coalesce.New(0, func(context.Context, string) {}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for zero window, got %v", err)
	}
	if _, err := coalesce.New(time.Second, nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for nil fire, got %v", err)
	}
}

func TestBurstFiresOnce(t *testing.T) {
	rec := newRecorder()
	coord := newCoordinator(t, 50*time.Millisecond, rec)

	for i := 0; i < 5; i++ {
		if !coord.Schedule("leo_2023") {
			t.Fatal("Schedule returned false on open coordinator")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := coord.Pending(); got != 1 {
		t.Fatalf("Pending = %d, want 1", got)
	}
	waitFor(t, time.Second, func() bool { return rec.count("leo_2023") == 1 })
	time.Sleep(150 * time.Millisecond)
	if got := rec.count("leo_2023"); got != 1 {
		t.Fatalf("burst produced %d fires, want 1", got)
	}
	waitFor(t, time.Second, func() bool { return coord.Pending() == 0 })
}

func TestArrivalExtendsWindow(t *testing.T) {
	rec := newRecorder()
	coord := newCoordinator(t, 100*time.Millisecond, rec)

	coord.Schedule("rrr_2022")
	time.Sleep(70 * time.Millisecond)
	coord.Schedule("rrr_2022")
	time.Sleep(60 * time.Millisecond)
	if got := rec.count("rrr_2022"); got != 0 {
		t.Fatalf("window fired early: %d fires", got)
	}
	waitFor(t, time.Second, func() bool { return rec.count("rrr_2022") == 1 })
}

func TestSecondBurstFiresAgain(t *testing.T) {
	rec := newRecorder()
	coord := newCoordinator(t, 30*time.Millisecond, rec)

	coord.Schedule("vikram_2022")
	coord.Schedule("vikram_2022")
	waitFor(t, time.Second, func() bool { return rec.count("vikram_2022") == 1 })
	waitFor(t, time.Second, func() bool { return coord.InFlight() == 0 })

	coord.Schedule("vikram_2022")
	waitFor(t, time.Second, func() bool { return rec.count("vikram_2022") == 2 })
	time.Sleep(100 * time.Millisecond)
	if got := rec.count("vikram_2022"); got != 2 {
		t.Fatalf("expected exactly 2 fires, got %d", got)
	}
}

func TestFireReceivesMovieKeyContext(t *testing.T) {
	rec := newRecorder()
	got := make(chan string, 1)
	rec.hook = func(ctx context.Context, key string) {
		value, _ := services.MovieKeyFromContext(ctx)
		got <- value
	}
	coord := newCoordinator(t, 10*time.Millisecond, rec)
	coord.Schedule("jawan_2023")

	select {
	case value := <-got:
		if value != "jawan_2023" {
			t.Fatalf("context movie key = %q", value)
		}
	case <-time.After(time.Second):
		t.Fatal("fire did not run")
	}
}

func TestArrivalDuringFireArmsFreshWindow(t *testing.T) {
	rec := newRecorder()
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var calls atomic.Int32
	rec.hook = func(ctx context.Context, key string) {
		started <- struct{}{}
		if calls.Add(1) == 1 {
			<-release
		}
	}
	coord := newCoordinator(t, 30*time.Millisecond, rec)

	coord.Schedule("kaithi_2019")
	<-started

	coord.Schedule("kaithi_2019")
	if got := coord.InFlight(); got != 1 {
		t.Fatalf("InFlight = %d, want 1", got)
	}
	if got := coord.Pending(); got != 1 {
		t.Fatalf("Pending = %d, want 1", got)
	}

	time.Sleep(80 * time.Millisecond)
	if got := rec.count("kaithi_2019"); got != 1 {
		t.Fatalf("second fire started while first in flight: %d", got)
	}
	close(release)

	waitFor(t, time.Second, func() bool { return rec.count("kaithi_2019") == 2 })
	time.Sleep(60 * time.Millisecond)
	if got := rec.count("kaithi_2019"); got != 2 {
		t.Fatalf("expected 2 fires, got %d", got)
	}
	if rec.overlapCount() != 0 {
		t.Fatal("fires for the same key overlapped")
	}
}

func TestSettlesDuringFireQueueSingleFollowUp(t *testing.T) {
	rec := newRecorder()
	started := make(chan struct{}, 8)
	release := make(chan struct{})
	var calls atomic.Int32
	rec.hook = func(ctx context.Context, key string) {
		started <- struct{}{}
		if calls.Add(1) == 1 {
			<-release
		}
	}
	coord := newCoordinator(t, 15*time.Millisecond, rec)

	coord.Schedule("master_2021")
	<-started
	for i := 0; i < 3; i++ {
		coord.Schedule("master_2021")
		time.Sleep(50 * time.Millisecond)
	}
	if got := coord.Pending(); got != 0 {
		t.Fatalf("Pending = %d, want 0 once windows settled", got)
	}
	close(release)

	waitFor(t, time.Second, func() bool { return rec.count("master_2021") == 2 })
	waitFor(t, time.Second, func() bool { return coord.InFlight() == 0 })
	time.Sleep(50 * time.Millisecond)
	if got := rec.count("master_2021"); got != 2 {
		t.Fatalf("expected one coalesced follow-up, got %d fires", got)
	}
}

func TestKeysFireIndependently(t *testing.T) {
	rec := newRecorder()
	release := make(chan struct{})
	rec.hook = func(ctx context.Context, key string) {
		if key == "slow_" {
			<-release
		}
	}
	coord := newCoordinator(t, 20*time.Millisecond, rec)
	defer close(release)

	coord.Schedule("slow_")
	waitFor(t, time.Second, func() bool { return rec.count("slow_") == 1 })
	coord.Schedule("fast_")
	waitFor(t, time.Second, func() bool { return rec.count("fast_") == 1 })
	if got := coord.InFlight(); got != 1 {
		t.Fatalf("InFlight = %d, want only the slow key", got)
	}
}

func TestCloseDiscardsArmedWindows(t *testing.T) {
	rec := newRecorder()
	coord, err := coalesce.New(30*time.Millisecond, rec.fire, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	coord.Schedule("a_")
	coord.Schedule("b_")

	if err := coord.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if coord.Pending() != 0 {
		t.Fatalf("Pending = %d after Close", coord.Pending())
	}
	time.Sleep(80 * time.Millisecond)
	if rec.count("a_")+rec.count("b_") != 0 {
		t.Fatal("discarded window fired")
	}
	if coord.Schedule("a_") {
		t.Fatal("Schedule succeeded after Close")
	}
	if err := coord.Close(context.Background()); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestCloseWaitsForInFlightFire(t *testing.T) {
	rec := newRecorder()
	started := make(chan struct{})
	release := make(chan struct{})
	rec.hook = func(ctx context.Context, key string) {
		close(started)
		<-release
	}
	coord, err := coalesce.New(10*time.Millisecond, rec.fire, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	coord.Schedule("leo_2023")
	<-started

	closed := make(chan error, 1)
	go func() { closed <- coord.Close(context.Background()) }()

	select {
	case <-closed:
		t.Fatal("Close returned while a fire was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not return after fire completed")
	}
}

func TestCloseDeadlineCancelsFireContext(t *testing.T) {
	rec := newRecorder()
	started := make(chan struct{})
	finished := make(chan struct{})
	rec.hook = func(ctx context.Context, key string) {
		close(started)
		<-ctx.Done()
		close(finished)
	}
	coord, err := coalesce.New(10*time.Millisecond, rec.fire, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	coord.Schedule("leo_2023")
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := coord.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close = %v, want deadline exceeded", err)
	}
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("fire context was not canceled")
	}
}

func TestPanickingFireIsRecovered(t *testing.T) {
	rec := newRecorder()
	var calls atomic.Int32
	rec.hook = func(ctx context.Context, key string) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	}
	coord := newCoordinator(t, 10*time.Millisecond, rec)

	coord.Schedule("leo_2023")
	waitFor(t, time.Second, func() bool { return rec.count("leo_2023") == 1 && coord.InFlight() == 0 })
	coord.Schedule("leo_2023")
	waitFor(t, time.Second, func() bool { return rec.count("leo_2023") == 2 })
}
