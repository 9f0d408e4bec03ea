package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subplay/internal/config"
	"subplay/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("ASSRT_TOKEN", "")
	t.Setenv("NO_COLOR", "1")
	cfg.Playback.SyncIntervalMillis = 20

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// newFakeAssrt serves one search result whose detail points at an SRT file
// hosted by the same server.
func newFakeAssrt(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sub/search":
			_, _ = io.WriteString(w, `{"status":0,"sub":{"subs":[
				{"id":101,"native_name":"Example 简英","videoname":"Example.2024.1080p","subtype":"Subrip(srt)",
				 "upload_time":"2024-03-01 12:30:00","lang":{"desc":"简英","langlist":{"langchs":true}}}
			]}}`)
		case "/sub/detail":
			_, _ = io.WriteString(w, `{"status":0,"sub":{"subs":[
				{"id":101,"filename":"example.srt","url":"http://`+r.Host+`/files/example.srt"}
			]}}`)
		case "/files/example.srt":
			_, _ = io.WriteString(w, payload)
		case "/user/quota":
			_, _ = io.WriteString(w, `{"status":0,"user":{"quota":42}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}
