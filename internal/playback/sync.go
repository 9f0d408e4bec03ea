package playback

import (
	"context"
	"time"
)

func (m *Manager) startSyncLocked() {
	if m.closed || m.syncCancel != nil || m.media.Position == nil {
		return
	}
	ctx, cancel := context.WithCancel(m.mediaCtx)
	m.syncCancel = cancel
	m.wg.Add(1)
	go m.runSync(ctx, m.syncInterval)
}

func (m *Manager) stopSyncLocked() {
	if m.syncCancel != nil {
		m.syncCancel()
		m.syncCancel = nil
	}
}

func (m *Manager) runSync(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			m.tick()
		}
	}
}

// tick publishes the cue active at the host's current position. An
// unavailable position publishes no cue.
func (m *Manager) tick() {
	m.mu.Lock()
	if m.closed || !m.enabled {
		m.mu.Unlock()
		return
	}
	gen := m.cueGen
	position := m.media.Position
	timeline, delay := m.timeline, m.delayMs
	m.mu.Unlock()

	var cue Cue
	if position != nil {
		if ms, ok := position.CurrentPositionMs(); ok {
			if item, found := timeline.At(adjustedPosition(ms, delay)); found {
				cue = Cue{Active: true, Item: item}
			}
		}
	}
	m.publish(gen, cue)
}
