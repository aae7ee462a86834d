package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"reelpost/internal/config"
	"reelpost/internal/logging"
)

const (
	callAttempts  = 3
	callBaseDelay = time.Second
	maxRetryAfter = 60 * time.Second
)

// Client issues Bot API calls.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	attempts   uint
	baseDelay  time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryAttempts caps the attempts made for each throttled call.
func WithRetryAttempts(attempts uint) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// WithRetryDelay overrides the base backoff between retried calls.
func WithRetryDelay(delay time.Duration) ClientOption {
	return func(c *Client) {
		c.baseDelay = delay
	}
}

// NewClient builds a Bot API client from configuration.
func NewClient(cfg config.Telegram, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errors.New("telegram bot token required")
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}
	poll := time.Duration(cfg.PollTimeout) * time.Second
	client := &Client{
		token:      token,
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{Timeout: poll + 15*time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logging.NewComponentLogger(logger, "telegram"),
		attempts:   callAttempts,
		baseDelay:  callBaseDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetMe returns the bot identity; used to verify credentials at startup.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, "getMe", struct{}{}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type getUpdatesParams struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// GetUpdates long-polls for updates after offset. It is not throttled and not
// retried; the poller owns its own backoff.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	var updates []Update
	params := getUpdatesParams{
		Offset:         offset,
		Timeout:        timeout,
		AllowedUpdates: []string{"channel_post", "message"},
	}
	if err := c.do(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

type sendPhotoParams struct {
	ChatID    string `json:"chat_id"`
	Photo     string `json:"photo"`
	Caption   string `json:"caption"`
	ParseMode string `json:"parse_mode"`
}

// SendPhoto posts a photo by URL or file id with an HTML caption.
func (c *Client) SendPhoto(ctx context.Context, chatID, photo, caption string) (*Message, error) {
	var msg Message
	params := sendPhotoParams{ChatID: chatID, Photo: photo, Caption: caption, ParseMode: "HTML"}
	if err := c.call(ctx, "sendPhoto", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type sendMessageParams struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// SendMessage posts HTML text without a link preview.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*Message, error) {
	var msg Message
	params := sendMessageParams{ChatID: chatID, Text: text, ParseMode: "HTML", DisableWebPagePreview: true}
	if err := c.call(ctx, "sendMessage", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type editCaptionParams struct {
	ChatID    string `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	Caption   string `json:"caption"`
	ParseMode string `json:"parse_mode"`
}

// EditMessageCaption replaces the caption of a media message.
func (c *Client) EditMessageCaption(ctx context.Context, chatID string, messageID int64, caption string) error {
	params := editCaptionParams{ChatID: chatID, MessageID: messageID, Caption: caption, ParseMode: "HTML"}
	return c.call(ctx, "editMessageCaption", params, nil)
}

type editTextParams struct {
	ChatID                string `json:"chat_id"`
	MessageID             int64  `json:"message_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// EditMessageText replaces the text of a text message.
func (c *Client) EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error {
	params := editTextParams{ChatID: chatID, MessageID: messageID, Text: text, ParseMode: "HTML", DisableWebPagePreview: true}
	return c.call(ctx, "editMessageText", params, nil)
}

// call throttles and retries a Bot API method. Throttling responses wait the
// server-provided retry_after; other temporary failures back off.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			return c.do(ctx, method, params, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.baseDelay),
		retry.DelayType(func(n uint, err error, cfg *retry.Config) time.Duration {
			if wait, ok := retryAfter(err); ok {
				return min(wait, maxRetryAfter)
			}
			return retry.BackOffDelay(n, err, cfg)
		}),
		retry.RetryIf(temporary),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("telegram call retrying",
				logging.String("method", method),
				logging.Int("attempt", int(n)+1),
				logging.Error(err),
			)
		}),
		retry.LastErrorOnly(true),
	)
}

func temporary(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) do(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}
	endpoint := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute %s: %w", method, redact(err, c.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !envelope.OK {
		apiErr := &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// redact strips the bot token from transport errors, which embed the URL.
func redact(err error, token string) error {
	msg := err.Error()
	if !strings.Contains(msg, token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, token, "<token>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
