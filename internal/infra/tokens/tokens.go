// Package tokens holds the in-memory table of API keys and their rate limits.
package tokens

import (
	"sync"
)

// Store maps API tokens to per-interval request limits. The zero value is an
// unloaded store.
type Store struct {
	mu    sync.RWMutex
	cache map[string]int
}

// NewStore returns a store loaded from m.
func NewStore(m map[string]int) *Store {
	s := &Store{}
	s.Load(m)
	return s
}

// Load replaces the token table with a copy of m.
func (s *Store) Load(m map[string]int) {
	cache := make(map[string]int, len(m))
	for k, v := range m {
		cache[k] = v
	}
	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
}

// Ready returns true once the table has been loaded at least once.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache != nil
}

// Enabled reports whether any token is configured.
func (s *Store) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache) > 0
}

// Validate checks whether token is known.
func (s *Store) Validate(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[token]
	return ok
}

// RateLimit returns the configured limit for token. Unknown tokens and a
// limit of 0 both mean "not rate limited".
func (s *Store) RateLimit(token string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[token]
}
