package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subplay/internal/testsupport"
)

func TestSearchListsRankedCandidates(t *testing.T) {
	server := newFakeAssrt(t, testsupport.SampleSRT)
	env := setupCLITestEnv(t, testsupport.WithRemote(server.URL))

	out, _, err := runCLI(t, env, "search", "Example")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "101")
	requireContains(t, out, "Example")
	requireContains(t, out, "2024-03-01")

	out, _, err = runCLI(t, env, "search", "--json", "Example")
	if err != nil {
		t.Fatalf("search --json: %v", err)
	}
	var views []candidateView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode output: %v (%q)", err, out)
	}
	if len(views) != 1 || views[0].ID != "101" || views[0].Rank != 1 {
		t.Fatalf("unexpected candidates %+v", views)
	}
	if len(views[0].Formats) != 1 || views[0].Formats[0] != "srt" {
		t.Fatalf("expected declared srt format, got %v", views[0].Formats)
	}
}

func TestSearchRequiresRemote(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "search", "Example")
	if err == nil || !strings.Contains(err.Error(), "remote search disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestFetchWritesNormalizedSRT(t *testing.T) {
	server := newFakeAssrt(t, "1\r\n00:00:01,000 --> 00:00:02,000\r\n<i>Hi</i>\r\n")
	env := setupCLITestEnv(t, testsupport.WithRemote(server.URL))
	target := filepath.Join(env.baseDir, "out", "example.srt")

	_, errOut, err := runCLI(t, env, "fetch", "-o", target, "Example")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, errOut, "Loaded 1 cues from example.srt")
	requireContains(t, errOut, "Wrote "+target)

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "1\n00:00:01,000 --> 00:00:02,000\nHi\n"
	if string(data) != want {
		t.Fatalf("unexpected SRT %q, want %q", data, want)
	}
}

func TestFetchToStdout(t *testing.T) {
	server := newFakeAssrt(t, testsupport.SampleSRT)
	env := setupCLITestEnv(t, testsupport.WithRemote(server.URL))

	out, _, err := runCLI(t, env, "fetch", "Example")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if out != testsupport.SampleSRT {
		t.Fatalf("unexpected stdout %q", out)
	}
}
