package confirmation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// DefaultTTL is how long a pending confirmation stays redeemable.
const DefaultTTL = 5 * time.Minute

// Manager mints and redeems confirmation tokens.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a manager. A non-positive ttl selects DefaultTTL.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// NewToken returns an unguessable token built from two random UUIDs.
func NewToken() string {
	a, b := uuid.New(), uuid.New()
	return "cf_" + strings.ReplaceAll(a.String()+b.String(), "-", "")
}

// Create parks a tool call for tenantID and returns the stored confirmation.
func (m *Manager) Create(ctx context.Context, tool string, params map[string]any, tenantID, description string) (*domain.PendingConfirmation, error) {
	now := m.now()
	p := &domain.PendingConfirmation{
		Token:       NewToken(),
		Tool:        tool,
		Params:      params,
		TenantID:    tenantID,
		Description: description,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store confirmation: %w", err)
	}
	return p, nil
}

// Redeem removes the confirmation for token before returning it, so a token
// is never handed out twice. A token owned by another tenant is consumed and
// ErrUnauthorized is returned. Unknown and expired tokens yield ErrNotFound.
func (m *Manager) Redeem(ctx context.Context, token, tenantID string) (*domain.PendingConfirmation, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	p, err := m.store.Take(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem confirmation: %w", err)
	}
	if p == nil || p.Expired(m.now()) {
		return nil, ErrNotFound
	}
	if p.TenantID != tenantID {
		return nil, ErrUnauthorized
	}
	return p, nil
}

// Sweep removes expired confirmations.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.Sweep(ctx, m.now())
}

// TTL returns the lifetime of a new confirmation.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
