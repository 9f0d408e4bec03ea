package session

import (
	"context"
	"sync"
	"time"

	"subplay/internal/playback"
)

const writeTimeout = 5 * time.Second

var _ playback.Session = (*Session)(nil)

// Session is the persisted state of one media item.
type Session struct {
	store *Store
	key   string

	mu       sync.Mutex
	searched bool
	delayMs  int64
}

// Session loads the state for key. A missing row yields a fresh session; the
// row is created on the first write.
func (s *Store) Session(ctx context.Context, key string) (*Session, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	record, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	sess := &Session{store: s, key: key}
	if record != nil {
		sess.searched = record.AutoSearched
		sess.delayMs = record.DelayMs
	}
	return sess, nil
}

// Key returns the media key.
func (s *Session) Key() string { return s.key }

func (s *Session) AutoSearched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searched
}

func (s *Session) MarkAutoSearched() error {
	s.mu.Lock()
	s.searched = true
	s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.store.setAutoSearched(ctx, s.key)
}

func (s *Session) Delay() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delayMs
}

func (s *Session) SaveDelay(ms int64) error {
	s.mu.Lock()
	s.delayMs = ms
	s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.store.setDelay(ctx, s.key, ms)
}
