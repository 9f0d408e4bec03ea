package playback

import (
	"testing"
	"time"
)

func TestClockPlayPauseSeek(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewClock(10_000)
	c.now = func() time.Time { return now }

	if ms, ok := c.CurrentPositionMs(); !ok || ms != 0 {
		t.Fatalf("new clock at %d", ms)
	}
	c.Play()
	now = now.Add(1500 * time.Millisecond)
	if ms, _ := c.CurrentPositionMs(); ms != 1500 {
		t.Fatalf("expected 1500, got %d", ms)
	}
	c.Pause()
	now = now.Add(time.Second)
	if ms, _ := c.CurrentPositionMs(); ms != 1500 {
		t.Fatalf("paused clock moved to %d", ms)
	}
	c.Seek(4000)
	c.Play()
	now = now.Add(500 * time.Millisecond)
	if ms, _ := c.CurrentPositionMs(); ms != 4500 {
		t.Fatalf("expected 4500 after seek, got %d", ms)
	}
	now = now.Add(time.Minute)
	if ms, _ := c.CurrentPositionMs(); ms != 10_000 || !c.Finished() {
		t.Fatalf("expected clamp to duration, got %d", ms)
	}
	if c.DurationMs() != 10_000 || !c.Playing() {
		t.Fatal("unexpected duration or play state")
	}
}

func TestClockSetDurationBoundsPosition(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewClock(0)
	c.now = func() time.Time { return now }
	c.Play()
	now = now.Add(3 * time.Second)
	if c.Finished() {
		t.Fatal("unbounded clock reported finished")
	}
	c.SetDuration(2000)
	if ms, _ := c.CurrentPositionMs(); ms != 2000 || !c.Finished() {
		t.Fatalf("expected clamp to new duration, got %d", ms)
	}
}
