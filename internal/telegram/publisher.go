package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"reelpost/internal/caption"
	"reelpost/internal/logging"
	"reelpost/internal/services"
)

// api is the subset of Client the publisher drives.
type api interface {
	SendPhoto(ctx context.Context, chatID, photo, caption string) (*Message, error)
	SendMessage(ctx context.Context, chatID, text string) (*Message, error)
	EditMessageCaption(ctx context.Context, chatID string, messageID int64, caption string) error
	EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error
}

// Publisher creates and edits the post for a movie in the destination
// channel. Post ids are decimal message ids.
type Publisher struct {
	api    api
	chatID string
	logger *slog.Logger
}

// NewPublisher returns a publisher posting to chatID.
func NewPublisher(client api, chatID string, logger *slog.Logger) *Publisher {
	return &Publisher{
		api:    client,
		chatID: strings.TrimSpace(chatID),
		logger: logging.NewComponentLogger(logger, "publisher"),
	}
}

// Create posts text as the caption of posterRef. When the photo cannot be
// sent, or text exceeds the photo caption limit, it posts text alone.
func (p *Publisher) Create(ctx context.Context, posterRef, text string) (string, error) {
	logger := logging.WithContext(ctx, p.logger)

	var photoErr error
	if strings.TrimSpace(posterRef) != "" && caption.FitsPhoto(text) {
		msg, err := p.api.SendPhoto(ctx, p.chatID, posterRef, text)
		if err == nil {
			logger.Info("photo post created", logging.Int64("message_id", msg.MessageID))
			return strconv.FormatInt(msg.MessageID, 10), nil
		}
		photoErr = err
		logger.Warn("photo post failed; falling back to text",
			logging.Error(err),
			logging.String(logging.FieldEventType, "photo_post_degraded"),
			logging.String(logging.FieldImpact, "post is created without a poster"),
		)
	}

	msg, err := p.api.SendMessage(ctx, p.chatID, text)
	if err != nil {
		if photoErr != nil {
			err = fmt.Errorf("%w (photo attempt: %v)", err, photoErr)
		}
		return "", services.Wrap(services.ErrTransient, "publisher", "create", "send post", err)
	}
	logger.Info("text post created", logging.Int64("message_id", msg.MessageID))
	return strconv.FormatInt(msg.MessageID, 10), nil
}

// Edit replaces the post's caption, or its text for text-only posts. An
// unchanged body counts as success.
func (p *Publisher) Edit(ctx context.Context, postID, text string) error {
	messageID, err := strconv.ParseInt(strings.TrimSpace(postID), 10, 64)
	if err != nil || messageID <= 0 {
		return services.Wrap(services.ErrInvariant, "publisher", "edit", fmt.Sprintf("malformed post id %q", postID), err)
	}
	logger := logging.WithContext(ctx, p.logger).With(logging.Int64("message_id", messageID))

	captionErr := p.api.EditMessageCaption(ctx, p.chatID, messageID, text)
	if captionErr == nil || IsNotModified(captionErr) {
		logger.Info("post caption updated", logging.Bool("unchanged", captionErr != nil))
		return nil
	}

	textErr := p.api.EditMessageText(ctx, p.chatID, messageID, text)
	if textErr == nil || IsNotModified(textErr) {
		logger.Info("post text updated", logging.Bool("unchanged", textErr != nil))
		return nil
	}
	return services.Wrap(services.ErrTransient, "publisher", "edit", postID,
		fmt.Errorf("%w (caption attempt: %v)", textErr, captionErr))
}
