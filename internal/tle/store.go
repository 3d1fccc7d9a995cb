package tle

import (
	"sync"
	"time"
)

type storeEntry struct {
	elements  Elements
	fetchedAt time.Time
}

// Store is a concurrency-safe in-memory map of element sets by cache key.
type Store struct {
	mu      sync.RWMutex
	entries map[string]storeEntry
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]storeEntry)}
}

// Get returns the elements for key and when they were fetched.
func (s *Store) Get(key string) (Elements, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e.elements, e.fetchedAt, ok
}

// Set replaces the elements stored under key.
func (s *Store) Set(key string, el Elements, fetchedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = storeEntry{elements: el, fetchedAt: fetchedAt}
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
