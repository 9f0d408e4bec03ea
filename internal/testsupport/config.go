package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subplay/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Remote access is disabled unless WithRemote is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.SessionDB = filepath.Join(base, "state", "sessions.db")
	cfgVal.Feed.Bind = "127.0.0.1:0"
	cfgVal.Remote.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithRemote enables the remote client against baseURL with a test token and
// no request spacing.
func WithRemote(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.Enabled = true
		b.cfg.Remote.Token = "test-token"
		b.cfg.Remote.BaseURL = baseURL
		b.cfg.Remote.MinIntervalMillis = 0
	}
}

// WithStubbedFFprobe writes an ffprobe stand-in that prints output and points
// the config at it.
func WithStubbedFFprobe(output string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		payload := filepath.Join(binDir, "ffprobe.json")
		if err := os.WriteFile(payload, []byte(output), 0o644); err != nil {
			b.t.Fatalf("write ffprobe payload: %v", err)
		}
		target := filepath.Join(binDir, "ffprobe")
		script := []byte("#!/bin/sh\ncat '" + payload + "'\n")
		if err := os.WriteFile(target, script, 0o755); err != nil {
			b.t.Fatalf("write ffprobe stub: %v", err)
		}
		b.cfg.Subtitles.FFprobeBinary = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
