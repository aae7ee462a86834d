package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelpost/internal/config"
)

const userAgent = "reelpost/0.1.0"

// Event names a notification kind.
type Event string

const (
	EventPostCreated Event = "post_created"
	EventPostUpdated Event = "post_updated"
	EventError       Event = "error"
	EventTest        Event = "test"
)

// Payload carries event fields. Keys used: title, year, qualities, link,
// context, error.
type Payload map[string]string

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		posts:    cfg.Notifications.Posts,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	posts    bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventPostCreated:
		if !n.posts {
			return message{}, false
		}
		body := "🎬 Posted: " + displayTitle(payload)
		if q := strings.TrimSpace(payload["qualities"]); q != "" {
			body += fmt.Sprintf(" (%s files)", q)
		}
		if link := strings.TrimSpace(payload["link"]); link != "" {
			body += "\n" + link
		}
		return message{
			title: "Reelpost - New Post",
			body:  body,
			tags:  []string{"reelpost", "post", "created"},
		}, true
	case EventError:
		if !n.errors {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := strings.TrimSpace(payload["context"]); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if text := strings.TrimSpace(payload["error"]); text != "" {
			builder.WriteString(text)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Reelpost - Error",
			body:     builder.String(),
			tags:     []string{"reelpost", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Reelpost - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"reelpost", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func displayTitle(payload Payload) string {
	title := strings.TrimSpace(payload["title"])
	if title == "" {
		title = "Unknown"
	}
	if year := strings.TrimSpace(payload["year"]); year != "" && year != "0" {
		title = fmt.Sprintf("%s (%s)", title, year)
	}
	return title
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
