// Package cache provides a small owned map whose contents are replaced
// wholesale. Writers build a fresh map and swap it in; readers load the
// current map without locking and never see a half-updated state.
package cache

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Store holds a map that is only ever replaced, never mutated in place.
type Store[K comparable, V any] struct {
	mu      sync.Mutex // serializes writers only
	current atomic.Pointer[map[K]V]
}

// New creates an empty Store.
func New[K comparable, V any]() *Store[K, V] {
	s := &Store[K, V]{}
	empty := make(map[K]V)
	s.current.Store(&empty)
	return s
}

func (s *Store[K, V]) load() map[K]V {
	if m := s.current.Load(); m != nil {
		return *m
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	v, ok := s.load()[key]
	return v, ok
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() int {
	return len(s.load())
}

// Snapshot returns a copy of the current contents.
func (s *Store[K, V]) Snapshot() map[K]V {
	return maps.Clone(s.load())
}

// ReplaceAll swaps in a copy of entries as the new contents.
func (s *Store[K, V]) ReplaceAll(entries map[K]V) {
	next := maps.Clone(entries)
	if next == nil {
		next = make(map[K]V)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(&next)
}

// Put replaces the value for one key by swapping in a copied map that
// carries the change.
func (s *Store[K, V]) Put(key K, value V) {
	s.Update(func(m map[K]V) {
		m[key] = value
	})
}

// Delete removes key, again by copy and swap.
func (s *Store[K, V]) Delete(key K) {
	s.Update(func(m map[K]V) {
		delete(m, key)
	})
}

// Update applies fn to a private copy of the contents and swaps the result
// in. Concurrent writers are serialized so no update is lost.
func (s *Store[K, V]) Update(fn func(m map[K]V)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.load())
	if next == nil {
		next = make(map[K]V)
	}
	fn(next)
	s.current.Store(&next)
}
