package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelpost/internal/logging"
	"reelpost/internal/poster/tmdb"
	"reelpost/internal/telegram"
	"reelpost/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

type stubBot struct {
	user *telegram.User
	err  error
}

func (s stubBot) GetMe(context.Context) (*telegram.User, error) {
	return s.user, s.err
}

func TestCheckTelegram(t *testing.T) {
	tests := []struct {
		name       string
		bot        stubBot
		storeBot   string
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "same bot",
			bot:        stubBot{user: &telegram.User{IsBot: true, Username: "ReelStoreBot"}},
			storeBot:   "@reelstorebot",
			wantPass:   true,
			wantDetail: "authenticated as @ReelStoreBot",
		},
		{
			name:       "separate store bot",
			bot:        stubBot{user: &telegram.User{IsBot: true, Username: "ReelPollBot"}},
			storeBot:   "ReelStoreBot",
			wantPass:   true,
			wantDetail: "deep links use @ReelStoreBot",
		},
		{
			name:       "user account",
			bot:        stubBot{user: &telegram.User{Username: "someone"}},
			wantDetail: "not a bot account",
		},
		{
			name:       "bad token",
			bot:        stubBot{err: &telegram.APIError{Method: "getMe", Code: http.StatusUnauthorized, Description: "Unauthorized"}},
			wantDetail: "invalid bot token",
		},
		{
			name:       "timeout",
			bot:        stubBot{err: context.DeadlineExceeded},
			wantDetail: "timed out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckTelegram(context.Background(), tt.bot, tt.storeBot)
			if result.Passed != tt.wantPass {
				t.Fatalf("passed = %v, want %v (%s)", result.Passed, tt.wantPass, result.Detail)
			}
			if !strings.Contains(result.Detail, tt.wantDetail) {
				t.Fatalf("detail %q does not contain %q", result.Detail, tt.wantDetail)
			}
		})
	}
}

func TestCheckTMDB(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantPass   bool
		wantDetail string
	}{
		{name: "ok", status: http.StatusOK, wantPass: true, wantDetail: "API reachable"},
		{name: "bad key", status: http.StatusUnauthorized, wantDetail: "invalid api key"},
		{name: "server error", status: http.StatusBadGateway, wantDetail: "search failed (502)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search/movie" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
			}))
			defer srv.Close()

			client, err := tmdb.New("key", srv.URL, "en-US")
			if err != nil {
				t.Fatalf("tmdb.New: %v", err)
			}
			result := CheckTMDB(context.Background(), client)
			if result.Passed != tt.wantPass {
				t.Fatalf("passed = %v, want %v (%s)", result.Passed, tt.wantPass, result.Detail)
			}
			if !strings.Contains(result.Detail, tt.wantDetail) {
				t.Fatalf("detail %q does not contain %q", result.Detail, tt.wantDetail)
			}
		})
	}
}

func TestCheckStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckStore(cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.HasPrefix(result.Detail, "sqlite ") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestRunAll(t *testing.T) {
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getMe") {
			t.Errorf("unexpected bot call %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":9,"is_bot":true,"first_name":"Reel","username":"ReelStoreBot"}}`))
	}))
	defer bot.Close()
	movies := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer movies.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithTelegramAPI(bot.URL), testsupport.WithTMDBAPI(movies.URL))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg, logging.NewNop())
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"Data directory", "Log directory", "Catalog", "Telegram"} {
		if !byName[name].Passed {
			t.Fatalf("%s failed: %s", name, byName[name].Detail)
		}
	}
	if byName["TMDB"].Passed {
		t.Fatal("expected TMDB check to fail with a rejected key")
	}
	if !Failed(results) {
		t.Fatal("expected Failed to report the TMDB failure")
	}
}

func TestRunAllWithoutTMDBKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.TMDB.APIKey = ""
	cfg.Telegram.BotToken = ""

	results := RunAll(context.Background(), cfg, logging.NewNop())
	var sawTMDB, sawTelegram bool
	for _, r := range results {
		switch r.Name {
		case "TMDB":
			sawTMDB = true
			if !r.Passed {
				t.Fatalf("tmdb without key should pass: %s", r.Detail)
			}
		case "Telegram":
			sawTelegram = true
			if r.Passed {
				t.Fatal("telegram without token should fail")
			}
		}
	}
	if !sawTMDB || !sawTelegram {
		t.Fatalf("missing results: %+v", results)
	}
}

func TestSummarizeError(t *testing.T) {
	if got := summarizeError(errors.New("boom")); got != "boom" {
		t.Fatalf("summarizeError = %q", got)
	}
}
