// Package viewstate holds the screen-side machinery shared by every screen:
// snapshot stores, sequenced loaders with explicit fallback, and the
// mutation dispatcher that gates destructive operations.
package viewstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/erp/books/internal/domain/shared"
)

// Snapshot is one published state of a screen. A snapshot is immutable once
// stored; every successful load replaces it with a new one.
type Snapshot[V any] struct {
	Data V
	// Degraded is set when Data is fallback content substituted for a
	// failed load. Err then holds the failure.
	Degraded bool
	Err      error
	Seq      uint64
	LoadedAt time.Time
}

// Store holds the current snapshot of a screen
type Store[V any] struct {
	mu   sync.RWMutex
	snap *Snapshot[V]
}

// NewStore creates an empty store
func NewStore[V any]() *Store[V] {
	return &Store[V]{}
}

// Current returns the current snapshot, or nil before the first load.
// The returned pointer is shared; callers must not modify it.
func (s *Store[V]) Current() *Snapshot[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Data returns the current data and whether any load has been applied
func (s *Store[V]) Data() (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		var zero V
		return zero, false
	}
	return s.snap.Data, true
}

// Live returns the current data when it came from the backend. ok is false
// before the first load. Fallback content gives ErrUnavailable wrapping the
// load failure, so nothing acts on sample records.
func (s *Store[V]) Live() (data V, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.snap == nil:
		return data, false, nil
	case s.snap.Degraded && s.snap.Err != nil:
		return data, true, fmt.Errorf("%w: %w", shared.ErrUnavailable, s.snap.Err)
	case s.snap.Degraded:
		return data, true, shared.ErrUnavailable
	}
	return s.snap.Data, true, nil
}

// Degraded reports whether the current snapshot holds fallback content
func (s *Store[V]) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap != nil && s.snap.Degraded
}

func (s *Store[V]) publish(snap *Snapshot[V]) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
