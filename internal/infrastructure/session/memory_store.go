package session

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials for the life of the process
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Credentials
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Credentials)}
}

// Load returns the credentials stored under key
func (s *MemoryStore) Load(_ context.Context, key string) (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.entries[key]
	if !ok {
		return Credentials{}, ErrNoSession
	}
	return c, nil
}

// Save stores credentials under key
func (s *MemoryStore) Save(_ context.Context, key string, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = creds
	return nil
}

// Delete removes the credentials stored under key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
