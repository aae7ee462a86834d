package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"reelpost/internal/logging"
)

const (
	pollBackoffInitial = 2 * time.Second
	pollBackoffMax     = 60 * time.Second
)

// Upload is a media file posted to the source channel.
type Upload struct {
	UpdateID     int64
	ChatID       int64
	MessageID    int64
	FileName     string
	SizeBytes    uint64
	FileUniqueID string
	FileRef      string
	Caption      string
}

// UploadFromMessage extracts the upload carried by msg. The file name falls
// back to the mime type and then to "unknown".
func UploadFromMessage(updateID int64, msg *Message) (Upload, bool) {
	media := msg.Media()
	if media == nil {
		return Upload{}, false
	}
	name := strings.TrimSpace(media.FileName)
	if name == "" {
		name = strings.TrimSpace(media.MimeType)
	}
	if name == "" {
		name = "unknown"
	}
	var size uint64
	if media.FileSize > 0 {
		size = uint64(media.FileSize)
	}
	return Upload{
		UpdateID:     updateID,
		ChatID:       msg.Chat.ID,
		MessageID:    msg.MessageID,
		FileName:     name,
		SizeBytes:    size,
		FileUniqueID: media.FileUniqueID,
		FileRef:      media.FileID,
		Caption:      strings.TrimSpace(msg.Caption),
	}, true
}

// UpdateSource yields Bot API updates after offset.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
}

// Poller long-polls for source-channel uploads.
type Poller struct {
	source  UpdateSource
	channel string
	timeout int
	logger  *slog.Logger
	backoff time.Duration
	offset  atomic.Int64
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithBackoff overrides the initial delay after a failed poll.
func WithBackoff(delay time.Duration) PollerOption {
	return func(p *Poller) {
		if delay > 0 {
			p.backoff = delay
		}
	}
}

// NewPoller returns a poller accepting uploads from channel (numeric id or
// @username).
func NewPoller(source UpdateSource, channel string, timeout int, logger *slog.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		source:  source,
		channel: strings.TrimSpace(channel),
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "poller"),
		backoff: pollBackoffInitial,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Offset returns the next update id the poller will request.
func (p *Poller) Offset() int64 {
	return p.offset.Load()
}

// Run delivers uploads to handle until ctx is canceled. Poll failures back
// off exponentially and never end the loop.
func (p *Poller) Run(ctx context.Context, handle func(context.Context, Upload)) error {
	delay := p.backoff
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := p.source.GetUpdates(ctx, p.offset.Load(), p.timeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			p.logger.Warn("getUpdates failed",
				logging.Error(err),
				logging.Duration("retry_in", delay),
				logging.String(logging.FieldEventType, "poll_failed"),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, pollBackoffMax)
			continue
		}
		delay = p.backoff
		p.dispatch(ctx, updates, handle)
	}
}

// dispatch advances the offset past every update, handing source-channel
// uploads to handle.
func (p *Poller) dispatch(ctx context.Context, updates []Update, handle func(context.Context, Upload)) {
	for _, update := range updates {
		if update.UpdateID >= p.offset.Load() {
			p.offset.Store(update.UpdateID + 1)
		}
		msg := update.Post()
		if msg == nil || !msg.Chat.Matches(p.channel) {
			continue
		}
		upload, ok := UploadFromMessage(update.UpdateID, msg)
		if !ok {
			continue
		}
		p.logger.Debug("upload received",
			logging.Int64(logging.FieldUpdateID, update.UpdateID),
			logging.String("file_name", upload.FileName),
			logging.Uint64("size_bytes", upload.SizeBytes),
		)
		handle(ctx, upload)
	}
}
