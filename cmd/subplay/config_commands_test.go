package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subplay/internal/testsupport"
)

func TestConfigInitWritesSample(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "generated", "config.toml")

	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing file error, got %v", err)
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigInitSkipsBrokenConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[logging\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	target := filepath.Join(env.baseDir, "fresh.toml")
	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err != nil {
		t.Fatalf("config init should not load the broken config: %v", err)
	}
	if _, _, err := runCLI(t, env, "config", "show"); err == nil {
		t.Fatal("expected parse error from config show")
	}
}

func TestConfigShowMasksToken(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRemote("http://127.0.0.1:1"))

	out, _, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# source: "+env.configPath)
	requireContains(t, out, "********")
	if strings.Contains(out, "test-token") {
		t.Fatalf("token leaked: %q", out)
	}

	out, _, err = runCLI(t, env, "config", "show", "--show-secrets")
	if err != nil {
		t.Fatalf("config show --show-secrets: %v", err)
	}
	requireContains(t, out, "test-token")
}

func TestConfigCheckReportsResults(t *testing.T) {
	server := newFakeAssrt(t, testsupport.SampleSRT)
	env := setupCLITestEnv(t, testsupport.WithRemote(server.URL), testsupport.WithStubbedFFprobe("{}"))

	out, _, err := runCLI(t, env, "config", "check")
	if err != nil {
		t.Fatalf("config check: %v\n%s", err, out)
	}
	requireContains(t, out, "Log directory:")
	requireContains(t, out, "Remote API:")
	requireContains(t, out, "quota 42")
	requireContains(t, out, "Configuration valid")
}

func TestConfigCheckFailsWithoutFFprobe(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Subtitles.FFprobeBinary = filepath.Join(env.baseDir, "missing-ffprobe")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, env, "config", "check")
	if err == nil {
		t.Fatalf("expected failure, got output %q", out)
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "Remote search:")
}
