package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subplay/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ASSRT_TOKEN", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".cache", "subplay", "subtitles")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	wantDB := filepath.Join(tempHome, ".local", "share", "subplay", "sessions.db")
	if cfg.Paths.SessionDB != wantDB {
		t.Fatalf("unexpected session db: got %q want %q", cfg.Paths.SessionDB, wantDB)
	}
	if cfg.Remote.Enabled {
		t.Fatal("expected remote disabled by default")
	}
	if cfg.Remote.ResultLimit != 15 {
		t.Fatalf("expected result limit 15, got %d", cfg.Remote.ResultLimit)
	}
	if cfg.MinInterval().Seconds() != 3 {
		t.Fatalf("expected 3s minimum interval, got %s", cfg.MinInterval())
	}
	if cfg.Feed.Bind != "127.0.0.1:7490" {
		t.Fatalf("unexpected feed bind: %q", cfg.Feed.Bind)
	}
	if cfg.Subtitles.PreferEmbedded {
		t.Fatal("expected prefer_embedded off by default")
	}
}

func TestLoadUsesEnvToken(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ASSRT_TOKEN", "  env-token ")

	path := filepath.Join(tempHome, "config.toml")
	if err := os.WriteFile(path, []byte("[remote]\nenabled = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Remote.Token != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Remote.Token)
	}
}

func TestLoadRequiresTokenWhenRemoteEnabled(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ASSRT_TOKEN", "")

	path := filepath.Join(tempHome, "config.toml")
	if err := os.WriteFile(path, []byte("[remote]\nenabled = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "remote.token") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"result limit too high", func(c *config.Config) { c.Remote.ResultLimit = 16 }, "remote.result_limit"},
		{"result limit zero", func(c *config.Config) { c.Remote.ResultLimit = 0 }, "remote.result_limit"},
		{"connect timeout", func(c *config.Config) { c.Remote.ConnectTimeoutSeconds = 0 }, "remote.connect_timeout_seconds"},
		{"read timeout", func(c *config.Config) { c.Remote.ReadTimeoutSeconds = -1 }, "remote.read_timeout_seconds"},
		{"request timeout", func(c *config.Config) { c.Remote.RequestTimeoutSeconds = 0 }, "remote.request_timeout_seconds"},
		{"sync interval", func(c *config.Config) { c.Playback.SyncIntervalMillis = 0 }, "playback.sync_interval_millis"},
		{"charset", func(c *config.Config) { c.Subtitles.Charset = "klingon-8" }, "subtitles.charset"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateAcceptsKnownCharset(t *testing.T) {
	cfg := config.Default()
	cfg.Subtitles.Charset = "gbk"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected gbk to validate, got %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ASSRT_TOKEN", "")

	path := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	for _, section := range []string{"paths", "remote", "subtitles", "playback", "feed", "logging"} {
		if _, ok := raw[section]; !ok {
			t.Fatalf("sample missing [%s] section", section)
		}
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if cfg.Remote.Enabled {
		t.Fatal("expected sample to leave remote search disabled")
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.SessionDB = filepath.Join(base, "state", "sessions.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.CacheDir, filepath.Dir(cfg.Paths.SessionDB)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestExpandPathHandlesTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	got, err := config.ExpandPath("~/subs")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(tempHome, "subs") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
