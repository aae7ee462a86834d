package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"reelpost/internal/catalog"
	"reelpost/internal/config"
	"reelpost/internal/poster/tmdb"
	"reelpost/internal/telegram"
)

const checkTimeout = 10 * time.Second

// BotIdentity is the Bot API call used to verify the token.
type BotIdentity interface {
	GetMe(ctx context.Context) (*telegram.User, error)
}

// CheckTelegram verifies the bot token and reports the bot's username.
// A configured file-store bot that differs from the polling bot is only
// noted; deep links still work when the two are separate accounts.
func CheckTelegram(ctx context.Context, bot BotIdentity, fileStoreBot string) Result {
	const name = "Telegram"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	user, err := bot.GetMe(checkCtx)
	if err != nil {
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusNotFound) {
			return Result{Name: name, Detail: "auth failed (invalid bot token)"}
		}
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if !user.IsBot {
		return Result{Name: name, Detail: fmt.Sprintf("@%s is not a bot account", user.Username)}
	}
	detail := fmt.Sprintf("authenticated as @%s", user.Username)
	store := strings.TrimPrefix(strings.TrimSpace(fileStoreBot), "@")
	if store != "" && !strings.EqualFold(store, user.Username) {
		detail += fmt.Sprintf(" (deep links use @%s)", store)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckTMDB runs a single search to verify the API key and reachability.
func CheckTMDB(ctx context.Context, searcher tmdb.Searcher) Result {
	const name = "TMDB"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	_, err := searcher.SearchMovie(checkCtx, "Inception", tmdb.SearchOptions{Year: 2010})
	if err == nil {
		return Result{Name: name, Passed: true, Detail: "API reachable"}
	}
	var statusErr *tmdb.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return Result{Name: name, Detail: "auth failed (invalid api key)"}
		default:
			return Result{Name: name, Detail: fmt.Sprintf("search failed (%d)", statusErr.StatusCode)}
		}
	}
	return Result{Name: name, Detail: summarizeError(err)}
}

// CheckStore opens and closes the configured catalog, which also applies
// the schema.
func CheckStore(cfg *config.Config) Result {
	const name = "Catalog"

	store, err := catalog.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Store.Driver, err)}
	}
	detail := fmt.Sprintf("%s %s", store.Driver(), store.Target())
	if err := store.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: close: %v)", detail, err)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (API unreachable)"
	}
	return err.Error()
}
