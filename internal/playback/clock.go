package playback

import (
	"sync"
	"time"
)

// Clock is a PositionSource driven by wall time, for hosts without a player
// of their own. It starts paused at zero.
type Clock struct {
	mu         sync.Mutex
	now        func() time.Time
	durationMs uint64
	baseMs     uint64
	startedAt  time.Time
	running    bool
}

// NewClock returns a paused clock. A zero duration means unbounded.
func NewClock(durationMs uint64) *Clock {
	return &Clock{now: time.Now, durationMs: durationMs}
}

// Play resumes the clock.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.startedAt = c.now()
	c.running = true
}

// Pause freezes the clock at its current position.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.baseMs = c.positionLocked()
	c.running = false
}

// Seek moves the clock to ms, keeping the play state.
func (c *Clock) Seek(ms uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.durationMs > 0 && ms > c.durationMs {
		ms = c.durationMs
	}
	c.baseMs = ms
	if c.running {
		c.startedAt = c.now()
	}
}

// SetDuration bounds the clock at ms. Zero removes the bound.
func (c *Clock) SetDuration(ms uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durationMs = ms
}

// Playing reports whether the clock is running.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Finished reports whether a bounded clock reached its duration.
func (c *Clock) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.durationMs > 0 && c.positionLocked() >= c.durationMs
}

func (c *Clock) CurrentPositionMs() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked(), true
}

func (c *Clock) DurationMs() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.durationMs
}

func (c *Clock) positionLocked() uint64 {
	pos := c.baseMs
	if c.running {
		if elapsed := c.now().Sub(c.startedAt); elapsed > 0 {
			pos += uint64(elapsed.Milliseconds())
		}
	}
	if c.durationMs > 0 && pos > c.durationMs {
		pos = c.durationMs
	}
	return pos
}
