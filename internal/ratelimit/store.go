// Package ratelimit bounds the number of assistant turns a tenant may start
// within a fixed window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store keeps one request counter per key.
type Store interface {
	// Allow counts one request for key. When the window holds limit requests
	// already the request is rejected and the counter is left untouched. A key
	// whose window has ended starts a new window with a count of 1.
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error)
	// Sweep reclaims windows that ended before now and reports how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type entry struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
	dead    bool
}

// MemoryStore is a process-local Store. Each key is guarded by its own mutex.
type MemoryStore struct {
	entries sync.Map // key -> *entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Allow implements Store.
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error) {
	for {
		v, _ := s.entries.LoadOrStore(key, &entry{})
		e := v.(*entry)

		e.mu.Lock()
		if e.dead {
			// swept between LoadOrStore and Lock
			e.mu.Unlock()
			continue
		}
		if e.count == 0 || !now.Before(e.resetAt) {
			e.count = 1
			e.resetAt = now.Add(window)
			e.mu.Unlock()
			return true, nil
		}
		if e.count >= limit {
			e.mu.Unlock()
			return false, nil
		}
		e.count++
		e.mu.Unlock()
		return true, nil
	}
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	removed := 0
	s.entries.Range(func(key, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		if !now.Before(e.resetAt) {
			e.dead = true
			if s.entries.CompareAndDelete(key, e) {
				removed++
			}
		}
		e.mu.Unlock()
		return true
	})
	return removed, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
