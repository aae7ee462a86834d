package ingest_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelpost/internal/catalog"
	"reelpost/internal/coalesce"
	"reelpost/internal/config"
	"reelpost/internal/ingest"
	"reelpost/internal/logging"
	"reelpost/internal/services"
	"reelpost/internal/testsupport"
)

type post struct {
	id     string
	poster string
	text   string
}

type fakePublisher struct {
	mu      sync.Mutex
	posts   map[string]*post
	creates int
	edits   int
	next    int
	fail    error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{posts: map[string]*post{}}
}

func (p *fakePublisher) Create(_ context.Context, posterRef, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return "", p.fail
	}
	p.next++
	p.creates++
	id := "post-" + string(rune('0'+p.next))
	p.posts[id] = &post{id: id, poster: posterRef, text: text}
	return id, nil
}

func (p *fakePublisher) Edit(_ context.Context, postID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	existing, ok := p.posts[postID]
	if !ok {
		return services.Wrap(services.ErrNotFound, "fake", "edit", "unknown post", nil)
	}
	p.edits++
	existing.text = text
	return nil
}

func (p *fakePublisher) setFail(err error) {
	p.mu.Lock()
	p.fail = err
	p.mu.Unlock()
}

func (p *fakePublisher) counts() (creates, edits int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates, p.edits
}

func (p *fakePublisher) text(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.posts[id]; ok {
		return existing.text
	}
	return ""
}

type fakePosters struct {
	calls atomic.Int32
	ref   string
}

func (f *fakePosters) Lookup(context.Context, string, uint16) string {
	f.calls.Add(1)
	return f.ref
}

type countingScheduler struct {
	mu   sync.Mutex
	keys []string
}

func (s *countingScheduler) Schedule(key string) bool {
	s.mu.Lock()
	s.keys = append(s.keys, key)
	s.mu.Unlock()
	return true
}

func (s *countingScheduler) scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

type fixture struct {
	cfg       *config.Config
	store     *catalog.Store
	publisher *fakePublisher
	posters   *fakePosters
	handler   *ingest.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	f := &fixture{
		cfg:       cfg,
		store:     testsupport.MustOpenCatalog(t, cfg),
		publisher: newFakePublisher(),
		posters:   &fakePosters{ref: "https://image.tmdb.org/t/p/w500/poster.jpg"},
	}
	f.handler = ingest.NewHandler(ingest.Deps{
		Store:     f.store,
		Posters:   f.posters,
		Publisher: f.publisher,
		DeepLink:  cfg.DeepLink,
		Logger:    logging.NewNop(),
	})
	return f
}

func upload(name, uniqueID string) ingest.Upload {
	return ingest.Upload{
		FileName:     name,
		SizeBytes:    450 * 1024 * 1024,
		FileUniqueID: uniqueID,
		FileRef:      "ref-" + uniqueID,
	}
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
	t.Fatalf("condition not met within %s", timeout)
}

func TestHandleUploadDropsUntitledNames(t *testing.T) {
	f := newFixture(t)
	sched := &countingScheduler{}
	f.handler.SetScheduler(sched)

	_, err := f.handler.HandleUpload(context.Background(), upload("9f86d081884c7d65.mkv", "u1"))
	if !errors.Is(err, services.ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
	if got := sched.scheduled(); len(got) != 0 {
		t.Fatalf("expected no schedule, got %v", got)
	}
	stats, err := f.store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Movies != 0 {
		t.Fatalf("expected empty catalog, got %+v", stats)
	}
	if f.posters.calls.Load() != 0 {
		t.Fatal("poster lookup should not run for dropped names")
	}
}

func TestHandleUploadMergesAndReusesGroup(t *testing.T) {
	f := newFixture(t)
	sched := &countingScheduler{}
	f.handler.SetScheduler(sched)
	ctx := context.Background()

	first, err := f.handler.HandleUpload(ctx, upload("RRR (2022) WEBRip 720p x264 [Tamil - Telugu - Hindi] AAC 2.0 450MB ESub.mkv", "u1"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := f.handler.HandleUpload(ctx, upload("RRR.2022.1080p.WEB-DL.x265.Hindi.DDP5.1.mkv", "u2"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if first.Key != "rrr_2022" || second.Key != first.Key {
		t.Fatalf("unexpected keys %q %q", first.Key, second.Key)
	}
	if second.GroupID != first.GroupID || len(first.GroupID) != 12 {
		t.Fatalf("group id not stable: %q vs %q", first.GroupID, second.GroupID)
	}
	if len(second.Qualities) != 2 {
		t.Fatalf("expected 2 qualities, got %d", len(second.Qualities))
	}
	if calls := f.posters.calls.Load(); calls != 1 {
		t.Fatalf("expected one poster lookup, got %d", calls)
	}
	if got := sched.scheduled(); len(got) != 2 || got[0] != "rrr_2022" {
		t.Fatalf("unexpected schedule calls %v", got)
	}
}

func TestHandleUploadRetriesMissingPoster(t *testing.T) {
	f := newFixture(t)
	f.handler.SetScheduler(&countingScheduler{})
	f.posters.ref = ""
	ctx := context.Background()

	if _, err := f.handler.HandleUpload(ctx, upload("Nomad.720p.mkv", "u1")); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	f.posters.ref = "https://example.test/nomad.jpg"
	movie, err := f.handler.HandleUpload(ctx, upload("Nomad.1080p.mkv", "u2"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if movie.PosterRef != "https://example.test/nomad.jpg" {
		t.Fatalf("expected poster filled on later arrival, got %q", movie.PosterRef)
	}
}

func TestPublishCreatesThenEdits(t *testing.T) {
	f := newFixture(t)
	f.handler.SetScheduler(&countingScheduler{})
	ctx := context.Background()

	movie, err := f.handler.HandleUpload(ctx, upload("Avengers.Endgame.2019.BRRip.480p.x264.Tamil.AAC.300MB.mkv", "u1"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := f.handler.Publish(ctx, movie.Key); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	stored, err := f.store.GetByKey(ctx, movie.Key)
	if err != nil || stored == nil {
		t.Fatalf("GetByKey: %v %v", stored, err)
	}
	if !stored.Posted() {
		t.Fatal("expected downstream post id recorded")
	}
	text := f.publisher.text(stored.DownstreamPostID)
	if !strings.Contains(text, f.cfg.DeepLink(stored.GroupID)) {
		t.Fatalf("caption missing deep link: %q", text)
	}

	if _, err := f.handler.HandleUpload(ctx, upload("Avengers.Endgame.2019.1080p.BluRay.x264.Tamil.AAC.2GB.mkv", "u2")); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if err := f.handler.Publish(ctx, movie.Key); err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	creates, edits := f.publisher.counts()
	if creates != 1 || edits != 1 {
		t.Fatalf("expected 1 create and 1 edit, got %d/%d", creates, edits)
	}
	after, _ := f.store.GetByKey(ctx, movie.Key)
	if after.DownstreamPostID != stored.DownstreamPostID {
		t.Fatalf("post id changed: %q -> %q", stored.DownstreamPostID, after.DownstreamPostID)
	}
	if updated := f.publisher.text(after.DownstreamPostID); updated == text {
		t.Fatal("expected edited caption to differ after second quality")
	}
}

func TestPublishMissingKeyIsNoop(t *testing.T) {
	f := newFixture(t)
	if err := f.handler.Publish(context.Background(), "ghost_1999"); err != nil {
		t.Fatalf("expected nil for missing key, got %v", err)
	}
	if creates, edits := f.publisher.counts(); creates != 0 || edits != 0 {
		t.Fatalf("unexpected publisher calls %d/%d", creates, edits)
	}
}

func TestFailedCreateLeavesRecordUnposted(t *testing.T) {
	f := newFixture(t)
	f.handler.SetScheduler(&countingScheduler{})
	ctx := context.Background()

	movie, err := f.handler.HandleUpload(ctx, upload("Leo.2023.720p.HDRip.x264.Tamil.mkv", "u1"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	f.publisher.setFail(services.Wrap(services.ErrTransient, "fake", "create", "down", nil))
	if err := f.handler.Publish(ctx, movie.Key); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient failure, got %v", err)
	}
	stored, _ := f.store.GetByKey(ctx, movie.Key)
	if stored.Posted() {
		t.Fatal("post id must stay unset after a failed create")
	}

	f.publisher.setFail(nil)
	if err := f.handler.Publish(ctx, movie.Key); err != nil {
		t.Fatalf("retry Publish: %v", err)
	}
	if creates, edits := f.publisher.counts(); creates != 1 || edits != 0 {
		t.Fatalf("expected retry to create, got %d/%d", creates, edits)
	}
}

// Two arrivals inside one window publish once with both qualities; a later
// arrival edits the same post.
func TestSettleWindowPublishesOnce(t *testing.T) {
	f := newFixture(t)
	coord, err := coalesce.New(150*time.Millisecond, f.handler.Fire, logging.NewNop())
	if err != nil {
		t.Fatalf("coalesce.New: %v", err)
	}
	t.Cleanup(func() { _ = coord.Close(context.Background()) })
	f.handler.SetScheduler(coord)
	ctx := context.Background()

	if _, err := f.handler.HandleUpload(ctx, upload("Jailer.2023.720p.WEBRip.x264.Tamil.AAC.mkv", "u1")); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, err := f.handler.HandleUpload(ctx, upload("Jailer.2023.1080p.WEBRip.x265.Tamil.AAC.mkv", "u2")); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if creates, _ := f.publisher.counts(); creates != 0 {
		t.Fatal("post created before the window settled")
	}

	waitFor(t, 2*time.Second, func() bool {
		creates, _ := f.publisher.counts()
		return creates == 1 && coord.InFlight() == 0
	})
	movie, _ := f.store.GetByKey(ctx, "jailer_2023")
	if movie == nil || !movie.Posted() || len(movie.Qualities) != 2 {
		t.Fatalf("unexpected record after settle: %+v", movie)
	}

	if _, err := f.handler.HandleUpload(ctx, upload("Jailer.2023.2160p.WEB-DL.HEVC.Tamil.DDP5.1.mkv", "u3")); err != nil {
		t.Fatalf("third upload: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		_, edits := f.publisher.counts()
		return edits == 1
	})
	if creates, _ := f.publisher.counts(); creates != 1 {
		t.Fatalf("expected no second create, got %d", creates)
	}
}

func TestNewGroupIDShape(t *testing.T) {
	a := ingest.NewGroupID("leo_2023")
	b := ingest.NewGroupID("leo_2023")
	if len(a) != 12 || len(b) != 12 {
		t.Fatalf("unexpected lengths %q %q", a, b)
	}
	if a == b {
		t.Fatal("group ids should not repeat")
	}
	for _, r := range a {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("non-hex rune in %q", a)
		}
	}
}
