package assrt

import (
	"context"
	"sync"
	"time"
)

// DefaultMinInterval spaces requests to stay within 20 requests per minute.
const DefaultMinInterval = 3 * time.Second

// window enforces a minimum interval between consecutive requests. Waiters
// queue on the mutex, so concurrent callers are serialized.
type window struct {
	mu       sync.Mutex
	interval time.Duration
	lastCall time.Time
	now      func() time.Time
}

func newWindow(interval time.Duration) *window {
	return &window{interval: interval, now: time.Now}
}

// acquire blocks until the next request may start and records it.
func (w *window) acquire(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.lastCall.IsZero() && w.interval > 0 {
		if wait := w.interval - w.now().Sub(w.lastCall); wait > 0 {
			if err := SleepWithContext(ctx, wait); err != nil {
				return err
			}
		}
	}
	w.lastCall = w.now()
	return nil
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
