package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"reelpost/internal/caption"
	"reelpost/internal/catalog"
	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/release"
	"reelpost/internal/services"
)

// Store is the catalog surface ingest depends on.
type Store interface {
	GetByKey(ctx context.Context, key string) (*catalog.Movie, error)
	Upsert(ctx context.Context, params catalog.UpsertParams) (*catalog.Movie, error)
	SetDownstreamPostID(ctx context.Context, key, postID string) error
}

// Publisher creates and edits downstream posts.
type Publisher interface {
	Create(ctx context.Context, posterRef, text string) (string, error)
	Edit(ctx context.Context, postID, text string) error
}

// PosterLookup resolves artwork; it never fails.
type PosterLookup interface {
	Lookup(ctx context.Context, title string, year uint16) string
}

// Scheduler arms a settle window for a movie key.
type Scheduler interface {
	Schedule(key string) bool
}

// Upload is one file arrival from the transport.
type Upload struct {
	UpdateID     int64
	FileName     string
	SizeBytes    uint64
	FileUniqueID string
	FileRef      string
	Caption      string
}

// Record extracts the release record for the upload.
func (u Upload) Record() release.Record {
	return release.Extract(u.FileName, u.SizeBytes,
		release.WithCaption(u.Caption),
		release.WithFile(u.FileUniqueID, u.FileRef),
	)
}

// Deps wires a Handler.
type Deps struct {
	Store     Store
	Posters   PosterLookup
	Publisher Publisher
	Notifier  notifications.Service
	DeepLink  func(groupID string) string
	Logger    *slog.Logger
}

// Handler merges arrivals and publishes settled movies.
type Handler struct {
	store      Store
	posters    PosterLookup
	publisher  Publisher
	notifier   notifications.Service
	deepLink   func(string) string
	scheduler  Scheduler
	newGroupID func(key string) string
	logger     *slog.Logger
}

// NewHandler builds a Handler. A scheduler must be attached with
// SetScheduler before uploads are handled.
func NewHandler(deps Deps) *Handler {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Handler{
		store:      deps.Store,
		posters:    deps.Posters,
		publisher:  deps.Publisher,
		notifier:   notifier,
		deepLink:   deps.DeepLink,
		newGroupID: NewGroupID,
		logger:     logging.NewComponentLogger(deps.Logger, "ingest"),
	}
}

// SetScheduler attaches the coordinator that defers publishing.
func (h *Handler) SetScheduler(s Scheduler) {
	h.scheduler = s
}

// NewGroupID returns a 12-hex-character id derived from key and a random
// UUID, short enough for a Telegram start parameter.
func NewGroupID(key string) string {
	sum := sha256.Sum256([]byte(key + ":" + uuid.NewString()))
	return hex.EncodeToString(sum[:])[:12]
}

// HandleUpload extracts and merges one upload. Names without a title return
// an ErrUnparseable error and never reach the catalog or the scheduler.
func (h *Handler) HandleUpload(ctx context.Context, up Upload) (*catalog.Movie, error) {
	rec := up.Record()
	if !rec.Parsed() {
		return nil, services.Wrap(services.ErrUnparseable, "ingest", "extract", fmt.Sprintf("no title in %q", up.FileName), nil)
	}
	return h.Merge(ctx, rec)
}

// Merge stores rec under its movie key and re-arms the key's window. The
// merge completes before scheduling, so a later cancel never loses it.
func (h *Handler) Merge(ctx context.Context, rec release.Record) (*catalog.Movie, error) {
	if !rec.Parsed() {
		return nil, services.Wrap(services.ErrUnparseable, "ingest", "merge", fmt.Sprintf("no title in %q", rec.RawFilename), nil)
	}
	key := rec.Key()
	ctx = services.WithMovieKey(ctx, key)
	logger := logging.WithContext(ctx, h.logger)

	existing, err := h.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	params := catalog.UpsertParams{
		Key:     key,
		Title:   rec.Title,
		Year:    rec.Year,
		Quality: rec,
	}
	if existing == nil {
		params.GroupID = h.newGroupID(key)
	} else {
		params.GroupID = existing.GroupID
	}
	if (existing == nil || existing.PosterRef == "") && h.posters != nil {
		params.PosterRef = h.posters.Lookup(ctx, rec.Title, rec.Year)
	}

	movie, err := h.store.Upsert(ctx, params)
	if err != nil {
		return nil, err
	}
	if h.scheduler == nil || !h.scheduler.Schedule(key) {
		logger.Warn("merged without scheduling a post",
			logging.String(logging.FieldEventType, "schedule_skipped"),
			logging.String(logging.FieldImpact, "post updates on the next arrival or republish"),
		)
	}
	logger.Info("upload merged",
		logging.String("file_name", rec.RawFilename),
		logging.String("file_unique_id", rec.FileUniqueID),
		logging.Bool("new_movie", existing == nil),
		logging.Int("qualities", len(movie.Qualities)),
	)
	return movie, nil
}

// Publish renders the current record for key and creates or edits its post.
// A missing record is a no-op. A failed create leaves the post id unset so
// the next settle retries creation.
func (h *Handler) Publish(ctx context.Context, key string) error {
	ctx = services.WithMovieKey(ctx, key)
	logger := logging.WithContext(ctx, h.logger)

	movie, err := h.store.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if movie == nil {
		logger.Debug("settled key has no record; nothing to publish")
		return nil
	}
	text := caption.Assemble(movie.Qualities, h.deepLink(movie.GroupID), movie.Title, movie.Year)
	if text == "" {
		return services.Wrap(services.ErrInvariant, "ingest", "publish", "record has no qualities", nil)
	}

	if movie.Posted() {
		if err := h.publisher.Edit(ctx, movie.DownstreamPostID, text); err != nil {
			h.notifyError(ctx, key, err)
			return err
		}
		logger.Info("post updated",
			logging.String("post_id", movie.DownstreamPostID),
			logging.Int("qualities", len(movie.Qualities)),
		)
		return nil
	}

	postID, err := h.publisher.Create(ctx, movie.PosterRef, text)
	if err != nil {
		h.notifyError(ctx, key, err)
		return err
	}
	if err := h.store.SetDownstreamPostID(ctx, key, postID); err != nil {
		logger.Error("post created but id not recorded",
			logging.String("post_id", postID),
			logging.Error(err),
			logging.ErrorKind(err),
			logging.String(logging.FieldImpact, "next settle creates a duplicate post"),
		)
		h.notifyError(ctx, key, err)
		return err
	}
	logger.Info("post created",
		logging.String("post_id", postID),
		logging.Int("qualities", len(movie.Qualities)),
	)
	h.notify(ctx, notifications.EventPostCreated, notifications.Payload{
		"title":     movie.Title,
		"year":      strconv.Itoa(int(movie.Year)),
		"qualities": strconv.Itoa(len(movie.Qualities)),
		"link":      h.deepLink(movie.GroupID),
	})
	return nil
}

// Fire adapts Publish to the coordinator, logging failures by kind.
func (h *Handler) Fire(ctx context.Context, key string) {
	if err := h.Publish(ctx, key); err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, h.logger), "publish failed", "publish_failed",
			logging.Error(err),
			logging.ErrorKind(err),
			logging.Bool("retryable", services.Retryable(err)),
			logging.String(logging.FieldImpact, "post stays at its previous state until the next arrival"),
		)
	}
}

func (h *Handler) notifyError(ctx context.Context, key string, err error) {
	h.notify(ctx, notifications.EventError, notifications.Payload{
		"context": key,
		"error":   err.Error(),
	})
}

func (h *Handler) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := h.notifier.Publish(ctx, event, payload); err != nil {
		h.logger.Warn("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}
