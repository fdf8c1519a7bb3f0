package auth

import (
	"context"
	"sync"
	"time"
)

// Store is the session cache: subject key -> last seen raw token, with TTL.
type Store interface {
	// Touch resets the TTL of an existing entry or creates one holding token.
	// created reports which branch ran.
	Touch(ctx context.Context, key, token string, ttl time.Duration) (created bool, err error)
	// Extend resets the TTL of an existing entry and reports whether it existed.
	Extend(ctx context.Context, key string, ttl time.Duration) (existed bool, err error)
	// Get returns the stored token, or ok=false if there is no live entry.
	Get(ctx context.Context, key string) (token string, ok bool, err error)
	// Put writes value under key with ttl, replacing any existing entry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
}

// MemoryStore is an in-process Store for tests and local runs.
// It is not shared between processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, clock: time.Now}
}

// NewMemoryStoreWithClock lets tests control expiry.
func NewMemoryStoreWithClock(clock func() time.Time) *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, clock: clock}
}

func (s *MemoryStore) Touch(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if e, ok := s.live(key, now); ok {
		e.expiresAt = now.Add(ttl)
		s.entries[key] = e
		return false, nil
	}
	s.entries[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Extend(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	e, ok := s.live(key, now)
	if !ok {
		return false, nil
	}
	e.expiresAt = now.Add(ttl)
	s.entries[key] = e
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key, s.clock())
	if !ok {
		return "", false, nil
	}
	return e.token, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{token: value, expiresAt: s.clock().Add(ttl)}
	return nil
}

// TTL returns the remaining lifetime of key, or 0 if absent.
func (s *MemoryStore) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	e, ok := s.live(key, now)
	if !ok {
		return 0
	}
	return e.expiresAt.Sub(now)
}

// live must be called with mu held. Expired entries are evicted on access.
func (s *MemoryStore) live(key string, now time.Time) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !now.Before(e.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}
