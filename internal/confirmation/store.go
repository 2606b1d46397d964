// Package confirmation holds confirmation-gated tool calls until their owner
// confirms or declines them.
package confirmation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

var (
	// ErrNotFound is returned for a token that is unknown, already redeemed or expired.
	ErrNotFound = errors.New("confirmation not found or expired")
	// ErrUnauthorized is returned when a tenant redeems another tenant's token.
	ErrUnauthorized = errors.New("confirmation belongs to another tenant")
)

// Store keeps pending confirmations by token.
type Store interface {
	Put(ctx context.Context, p *domain.PendingConfirmation) error
	// Take removes the entry for token and returns it in one atomic step.
	// Concurrent callers for one token see it at most once. Missing tokens
	// yield (nil, nil).
	Take(ctx context.Context, token string) (*domain.PendingConfirmation, error)
	// Sweep removes entries expired at now and reports how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	entries sync.Map // token -> *domain.PendingConfirmation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, p *domain.PendingConfirmation) error {
	s.entries.Store(p.Token, p)
	return nil
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, token string) (*domain.PendingConfirmation, error) {
	v, ok := s.entries.LoadAndDelete(token)
	if !ok {
		return nil, nil
	}
	return v.(*domain.PendingConfirmation), nil
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	removed := 0
	s.entries.Range(func(key, v any) bool {
		if v.(*domain.PendingConfirmation).Expired(now) && s.entries.CompareAndDelete(key, v) {
			removed++
		}
		return true
	})
	return removed, nil
}

// Len returns the number of held confirmations, expired ones included.
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
