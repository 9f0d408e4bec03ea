package playback

import "sync"

// Session is the per-media state owned by the host.
type Session interface {
	AutoSearched() bool
	MarkAutoSearched() error
	Delay() int64
	SaveDelay(ms int64) error
}

// MemorySession keeps session state in memory.
type MemorySession struct {
	mu       sync.Mutex
	searched bool
	delayMs  int64
}

// NewMemorySession returns an empty in-memory session.
func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

func (s *MemorySession) AutoSearched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searched
}

func (s *MemorySession) MarkAutoSearched() error {
	s.mu.Lock()
	s.searched = true
	s.mu.Unlock()
	return nil
}

func (s *MemorySession) Delay() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delayMs
}

func (s *MemorySession) SaveDelay(ms int64) error {
	s.mu.Lock()
	s.delayMs = ms
	s.mu.Unlock()
	return nil
}
