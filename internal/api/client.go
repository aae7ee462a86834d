package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelpost/internal/services"
)

// ErrAPIUnavailable reports that no daemon API is configured or reachable.
var ErrAPIUnavailable = errors.New("daemon API unavailable")

// Client queries a running daemon.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// NewClient returns a client for the daemon bound at bind. An empty bind
// yields a nil client.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		http:  &http.Client{Timeout: 10 * time.Second},
		token: strings.TrimSpace(token),
	}, nil
}

// Status fetches GET /api/status.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var out DaemonStatus
	err := c.get(ctx, nil, &out, "api", "status")
	return out, err
}

// Movies fetches GET /api/movies.
func (c *Client) Movies(ctx context.Context, limit int) ([]Movie, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var out MovieListResponse
	if err := c.get(ctx, values, &out, "api", "movies"); err != nil {
		return nil, err
	}
	return out.Movies, nil
}

// Movie fetches GET /api/movies/{key}.
func (c *Client) Movie(ctx context.Context, key string) (Movie, error) {
	var out Movie
	err := c.get(ctx, nil, &out, "api", "movies", key)
	return out, err
}

// Group fetches GET /api/groups/{groupID}.
func (c *Client) Group(ctx context.Context, groupID string) (Movie, error) {
	var out Movie
	err := c.get(ctx, nil, &out, "api", "groups", groupID)
	return out, err
}

func (c *Client) get(ctx context.Context, values url.Values, out any, segments ...string) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := c.base.JoinPath(segments...)
	endpoint.RawQuery = values.Encode()
	path := endpoint.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		message := strings.TrimSpace(body.Error)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusNotFound {
			return services.Wrap(services.ErrNotFound, "api", path, message, nil)
		}
		return fmt.Errorf("api %s returned status %d: %s", path, resp.StatusCode, message)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsAPIUnavailable reports whether err means the daemon could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
