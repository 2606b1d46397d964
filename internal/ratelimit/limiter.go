package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Limiter applies one ceiling per tenant over a fixed window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// New creates a limiter allowing limit requests per window.
func New(store Store, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source. Used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Window returns the length of one window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow reports whether tenantID may start another turn. A store failure
// lets the request through.
func (l *Limiter) Allow(ctx context.Context, tenantID string) bool {
	if l.limit <= 0 {
		return true
	}
	ok, err := l.store.Allow(ctx, tenantID, l.limit, l.window, l.now())
	if err != nil {
		l.logger.Warn("rate limit store unavailable", zap.String("tenant_id", tenantID), zap.Error(err))
		return true
	}
	return ok
}

// Sweep reclaims expired windows.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	return l.store.Sweep(ctx, l.now())
}
