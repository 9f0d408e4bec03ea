package main

import (
	"context"
	"encoding/json"
	"testing"

	"subplay/internal/session"
	"subplay/internal/subtitle"
	"subplay/internal/testsupport"
)

func seedSessions(t *testing.T, env *cliTestEnv) {
	t.Helper()
	store := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()
	sess, err := store.Session(ctx, "ep01.mkv")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if err := sess.SaveDelay(-250); err != nil {
		t.Fatalf("SaveDelay: %v", err)
	}
	if err := sess.MarkAutoSearched(); err != nil {
		t.Fatalf("MarkAutoSearched: %v", err)
	}
	if err := store.RecordTrack(ctx, "ep02.mkv", subtitle.Track{ID: "7", Name: "ep02.chs.srt"}); err != nil {
		t.Fatalf("RecordTrack: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
}

func TestSessionListAndReset(t *testing.T) {
	env := setupCLITestEnv(t)
	seedSessions(t, env)

	out, _, err := runCLI(t, env, "session", "list")
	if err != nil {
		t.Fatalf("session list: %v", err)
	}
	requireContains(t, out, "ep01.mkv")
	requireContains(t, out, "-250ms")
	requireContains(t, out, "ep02.chs.srt")

	out, _, err = runCLI(t, env, "session", "reset", "ep01.mkv")
	if err != nil {
		t.Fatalf("session reset: %v", err)
	}
	requireContains(t, out, "Reset session ep01.mkv")

	out, _, err = runCLI(t, env, "session", "reset", "ep01.mkv")
	if err != nil {
		t.Fatalf("second reset: %v", err)
	}
	requireContains(t, out, "No session for ep01.mkv")

	out, _, err = runCLI(t, env, "session", "list", "--json")
	if err != nil {
		t.Fatalf("session list --json: %v", err)
	}
	var records []session.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode output: %v (%q)", err, out)
	}
	if len(records) != 1 || records[0].MediaKey != "ep02.mkv" || records[0].TrackID != "7" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestSessionResetAll(t *testing.T) {
	env := setupCLITestEnv(t)
	seedSessions(t, env)

	out, _, err := runCLI(t, env, "session", "reset", "--all")
	if err != nil {
		t.Fatalf("session reset --all: %v", err)
	}
	requireContains(t, out, "Removed 2 sessions")

	out, _, err = runCLI(t, env, "session", "list")
	if err != nil {
		t.Fatalf("session list: %v", err)
	}
	requireContains(t, out, "No sessions recorded")
}

func TestSessionResetArguments(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "session", "reset"); err == nil {
		t.Fatal("expected error without key")
	}
	if _, _, err := runCLI(t, env, "session", "reset", "--all", "ep01.mkv"); err == nil {
		t.Fatal("expected error for key with --all")
	}
}
