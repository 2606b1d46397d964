package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
)

// Fixed tenants used across package tests.
const (
	TenantA = "tenant-a"
	TenantB = "tenant-b"
	UserA   = "user-a"
	UserB   = "user-b"
)

func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// NewSeededStore returns a store holding TenantA and TenantB, each with a
// profile, one active service, a Monday availability window and one upcoming booking.
func NewSeededStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	s := NewTestSQLiteStore(t)
	SeedTenant(t, s, TenantA, UserA, "Plomberie A")
	SeedTenant(t, s, TenantB, UserB, "Electricite B")
	return s
}

// SeedTenant creates a tenant profile with a default service, Monday window and booking.
func SeedTenant(t *testing.T, s *repository.SQLiteStore, tenantID, userID, company string) {
	t.Helper()
	ctx := context.Background()

	if err := s.CreateProfile(ctx, &domain.Profile{ID: tenantID, UserID: userID, CompanyName: company}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	svc := SeedService(t, s, tenantID, tenantID+"-svc-1", "Repair", true)
	if err := s.CreateAvailability(ctx, &domain.Availability{
		ID: tenantID + "-day-1", TenantID: tenantID, DayOfWeek: 1,
		StartTime: "08:00", EndTime: "17:00", IsAvailable: true,
	}); err != nil {
		t.Fatalf("seed availability: %v", err)
	}
	SeedBooking(t, s, &domain.Booking{
		ID:         tenantID + "-bk-1",
		TenantID:   tenantID,
		ServiceID:  svc.ID,
		ClientName: "Jean Dupont",
		Date:       time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
		Time:       "10:00",
		Status:     domain.BookingStatusPending,
		PriceHT:    100,
		PriceTTC:   120,
	})
}

// SeedService creates a service for tenantID.
func SeedService(t *testing.T, s *repository.SQLiteStore, tenantID, id, name string, active bool) *domain.Service {
	t.Helper()
	svc := &domain.Service{
		ID:              id,
		TenantID:        tenantID,
		Name:            name,
		DurationMinutes: 60,
		PriceHT:         100,
		PriceTTC:        120,
		Active:          active,
	}
	if err := s.CreateService(context.Background(), svc); err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return svc
}

// SeedBooking creates a booking.
func SeedBooking(t *testing.T, s *repository.SQLiteStore, b *domain.Booking) *domain.Booking {
	t.Helper()
	if b.DurationMinutes == 0 {
		b.DurationMinutes = 60
	}
	if err := s.CreateBooking(context.Background(), b); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

// SeedClient creates a client record.
func SeedClient(t *testing.T, s *repository.SQLiteStore, id, name string) *domain.ClientSummary {
	t.Helper()
	c := &domain.ClientSummary{ID: id, Name: name, Email: name + "@example.com"}
	if err := s.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c
}
