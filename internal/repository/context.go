package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// Context window sizes rendered into the assistant prompt.
const (
	ContextBookingWindow = 10
	ContextClientWindow  = 20
)

// ContextLoader assembles the tenant snapshot used to build the assistant prompt.
type ContextLoader struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewContextLoader creates a loader reading from store. Dates are resolved in loc.
func NewContextLoader(store Store, loc *time.Location) *ContextLoader {
	if loc == nil {
		loc = time.UTC
	}
	return &ContextLoader{store: store, loc: loc, now: time.Now}
}

// Load returns the tenant's current operational snapshot.
//
// The bookings window holds the next upcoming bookings first and is topped up
// with the most recent past ones, ContextBookingWindow entries at most.
func (l *ContextLoader) Load(ctx context.Context, tenantID string) (*domain.TenantContext, error) {
	now := l.now().In(l.loc)
	tc := &domain.TenantContext{TenantID: tenantID, Now: now}

	profile, err := l.store.GetProfile(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	tc.Profile = profile

	if tc.Services, err = l.store.ListServices(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	if tc.Availability, err = l.store.ListAvailability(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if tc.DayServices, err = l.store.GetDayServices(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("load day services: %w", err)
	}

	today := now.Format("2006-01-02")
	upcoming, err := l.store.ListBookings(ctx, tenantID, BookingFilter{From: today, Limit: ContextBookingWindow})
	if err != nil {
		return nil, fmt.Errorf("load upcoming bookings: %w", err)
	}
	tc.RecentBookings = upcoming
	if room := ContextBookingWindow - len(upcoming); room > 0 {
		past, err := l.store.ListBookings(ctx, tenantID, BookingFilter{Before: today, Descending: true, Limit: room})
		if err != nil {
			return nil, fmt.Errorf("load past bookings: %w", err)
		}
		tc.RecentBookings = append(tc.RecentBookings, past...)
	}

	clients, err := l.store.ListClients(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	if len(clients) > ContextClientWindow {
		clients = clients[:ContextClientWindow]
	}
	tc.Clients = clients

	return tc, nil
}
