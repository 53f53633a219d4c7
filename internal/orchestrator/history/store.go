// Package history keeps an in-memory record of recent capture cycles
package history

import (
	"sync"
	"time"
)

// Entry describes one completed capture cycle.
type Entry struct {
	Cycle       int       `json:"cycle"`
	TraceID     string    `json:"trace_id"`
	CapturedAt  time.Time `json:"captured_at"`
	Path        string    `json:"filepath"`
	ModelOutput string    `json:"model_output"`
	Verdict     bool      `json:"verdict"`
	Notified    bool      `json:"notified"`
	Evicted     string    `json:"evicted,omitempty"`
	Distance    int       `json:"distance"` // pHash distance to the previous capture, -1 if unknown
}

// Store is a bounded, process-scoped list of cycles plus an event feed.
type Store struct {
	mu       sync.RWMutex
	entries  []Entry
	maxSize  int
	eventsCh chan Entry
}

// NewStore creates a history store.
func NewStore(maxEntries, eventBuffer int) *Store {
	return &Store{
		entries:  make([]Entry, 0, maxEntries),
		maxSize:  maxEntries,
		eventsCh: make(chan Entry, eventBuffer),
	}
}

// Add records a cycle and emits it on the event feed.
func (s *Store) Add(e Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	if len(s.entries) > s.maxSize {
		s.entries = s.entries[len(s.entries)-s.maxSize:]
	}
	s.mu.Unlock()

	s.Emit(e)
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) Recent(limit int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// Events returns the channel of cycle events.
func (s *Store) Events() <-chan Entry {
	return s.eventsCh
}

// Emit sends a cycle event (non-blocking).
func (s *Store) Emit(e Entry) {
	select {
	case s.eventsCh <- e:
	default:
	}
}
