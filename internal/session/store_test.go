package session_test

import (
	"context"
	"errors"
	"testing"

	"subplay/internal/services"
	"subplay/internal/session"
	"subplay/internal/subtitle"
	"subplay/internal/testsupport"
)

func TestSessionPersistsAcrossReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := session.Open(cfg.Paths.SessionDB)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	sess, err := store.Session(ctx, "/media/movie.mkv")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if sess.AutoSearched() || sess.Delay() != 0 {
		t.Fatal("expected fresh session")
	}
	if err := sess.MarkAutoSearched(); err != nil {
		t.Fatalf("MarkAutoSearched failed: %v", err)
	}
	if err := sess.SaveDelay(-750); err != nil {
		t.Fatalf("SaveDelay failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	again, err := reopened.Session(ctx, "/media/movie.mkv")
	if err != nil {
		t.Fatalf("Session after reopen failed: %v", err)
	}
	if !again.AutoSearched() || again.Delay() != -750 {
		t.Fatalf("state not persisted: searched=%v delay=%d", again.AutoSearched(), again.Delay())
	}
}

func TestRecordTrackKeepsOtherFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	sess, err := store.Session(ctx, "ep01.mkv")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if err := sess.SaveDelay(300); err != nil {
		t.Fatalf("SaveDelay failed: %v", err)
	}
	if err := store.RecordTrack(ctx, "ep01.mkv", subtitle.Track{ID: "42", Name: "ep01.chs.srt", URL: "http://secret/url"}); err != nil {
		t.Fatalf("RecordTrack failed: %v", err)
	}

	record, err := store.Get(ctx, "ep01.mkv")
	if err != nil || record == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.DelayMs != 300 || record.TrackID != "42" || record.TrackName != "ep01.chs.srt" || record.AutoSearched {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be set")
	}
}

func TestListAndReset(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, key := range []string{"a.mkv", "b.mkv", "c.mkv"} {
		sess, err := store.Session(ctx, key)
		if err != nil {
			t.Fatalf("Session(%s) failed: %v", key, err)
		}
		if err := sess.MarkAutoSearched(); err != nil {
			t.Fatalf("MarkAutoSearched(%s) failed: %v", key, err)
		}
	}
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	removed, err := store.Reset(ctx, "b.mkv")
	if err != nil || !removed {
		t.Fatalf("Reset(b.mkv) = %v, %v", removed, err)
	}
	removed, err = store.Reset(ctx, "b.mkv")
	if err != nil || removed {
		t.Fatalf("second Reset(b.mkv) = %v, %v", removed, err)
	}
	if record, _ := store.Get(ctx, "b.mkv"); record != nil {
		t.Fatalf("expected b.mkv to be gone, got %+v", record)
	}

	n, err := store.ResetAll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("ResetAll = %d, %v", n, err)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if _, err := store.Session(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := session.Open(""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
