package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reelpost/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Wait window: 30s")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsMissingDaemonSettings(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Telegram.BotToken = ""
	writeTestConfig(t, env.configPath, env.cfg)
	t.Setenv("BOT_TOKEN", "")

	if _, _, err := runCLI(t, env.configPath, "config", "validate"); err == nil {
		t.Fatal("expected validate to fail without a bot token")
	}
	out, _, err := runCLI(t, env.configPath, "config", "validate", "--daemon=false")
	if err != nil {
		t.Fatalf("validate --daemon=false: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateCheck(t *testing.T) {
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":9,"is_bot":true,"first_name":"Reel","username":"ReelStoreBot"}}`))
	}))
	defer bot.Close()
	env := setupCLITestEnv(t, testsupport.WithTelegramAPI(bot.URL))
	env.cfg.TMDB.APIKey = ""
	writeTestConfig(t, env.configPath, env.cfg)
	t.Setenv("TMDB_API_KEY", "")

	out, _, err := runCLI(t, env.configPath, "config", "validate", "--check")
	if err != nil {
		t.Fatalf("validate --check: %v\n%s", err, out)
	}
	requireContains(t, out, "authenticated as @ReelStoreBot")
	requireContains(t, out, "fallback poster only")
	requireContains(t, out, "Catalog")
}

func TestMovieKeyFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		year uint16
		want string
	}{
		{[]string{"avengers endgame_2019"}, 0, "avengers endgame_2019"},
		{[]string{"Avengers", "Endgame"}, 2019, "avengers endgame_2019"},
		{[]string{"nomad_"}, 0, "nomad_"},
	}
	for _, tt := range tests {
		if got := movieKeyFromArgs(tt.args, tt.year); got != tt.want {
			t.Errorf("movieKeyFromArgs(%v, %d) = %q, want %q", tt.args, tt.year, got, tt.want)
		}
	}
}
