// Package repository provides tenant-scoped access to the artisan data store.
//
// Every method that touches tenant data takes the tenant id explicitly and
// includes it in every query predicate. A record owned by another tenant is
// indistinguishable from a missing one: lookups return nil and mutations
// return ErrNotFound.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// ErrNotFound is returned when a record does not exist for the given tenant.
var ErrNotFound = errors.New("record not found")

// AvailabilityUpdate lists the availability fields to change. Nil fields are left untouched.
type AvailabilityUpdate struct {
	StartTime   *string
	EndTime     *string
	IsAvailable *bool
}

// ServiceUpdate lists the service fields to change.
type ServiceUpdate struct {
	Name            *string
	Description     *string
	DurationMinutes *int
	PriceHT         *float64
	PriceTTC        *float64
	Active          *bool
}

// Empty reports whether no field is set.
func (u ServiceUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.DurationMinutes == nil &&
		u.PriceHT == nil && u.PriceTTC == nil && u.Active == nil
}

// BookingUpdate lists the booking fields to change.
type BookingUpdate struct {
	Status      *domain.BookingStatus
	Date        *string
	Time        *string
	ConfirmedAt *time.Time
	CancelledAt *time.Time
}

// ProfileUpdate lists the profile fields to change.
type ProfileUpdate struct {
	CompanyName              *string
	Bio                      *string
	ZoneRadiusKm             *float64
	AutoReplyMessage         *string
	AutoBlockDurationMinutes *int
}

// Empty reports whether no field is set.
func (u ProfileUpdate) Empty() bool {
	return u.CompanyName == nil && u.Bio == nil && u.ZoneRadiusKm == nil &&
		u.AutoReplyMessage == nil && u.AutoBlockDurationMinutes == nil
}

// BookingFilter narrows ListBookings. Dates are YYYY-MM-DD strings.
type BookingFilter struct {
	Status           domain.BookingStatus // empty means any status
	ExcludeCancelled bool
	On               string // booking_date == On
	From             string // booking_date >= From
	Before           string // booking_date < Before
	ClientID         string
	Descending       bool
	Limit            int // 0 means no limit
}

// Store is the tenant-scoped data store used by the tool executors.
type Store interface {
	ListAvailability(ctx context.Context, tenantID string) ([]domain.Availability, error)
	GetAvailability(ctx context.Context, tenantID string, day int) (*domain.Availability, error)
	CreateAvailability(ctx context.Context, a *domain.Availability) error
	UpdateAvailability(ctx context.Context, tenantID, id string, u AvailabilityUpdate) error

	ListServices(ctx context.Context, tenantID string) ([]domain.Service, error)
	GetService(ctx context.Context, tenantID, id string) (*domain.Service, error)
	CreateService(ctx context.Context, s *domain.Service) error
	UpdateService(ctx context.Context, tenantID, id string, u ServiceUpdate) (*domain.Service, error)
	SetAllServicesActive(ctx context.Context, tenantID string, active bool) (int, error)
	DeleteService(ctx context.Context, tenantID, id string) error

	GetDayServices(ctx context.Context, tenantID string) (domain.DayServices, error)
	SaveDayServices(ctx context.Context, tenantID string, ds domain.DayServices) error

	ListBookings(ctx context.Context, tenantID string, f BookingFilter) ([]domain.Booking, error)
	GetBooking(ctx context.Context, tenantID, id string) (*domain.Booking, error)
	CreateBooking(ctx context.Context, b *domain.Booking) error
	UpdateBooking(ctx context.Context, tenantID, id string, u BookingUpdate) error

	ListClients(ctx context.Context, tenantID string) ([]domain.ClientSummary, error)

	ListBookingMessages(ctx context.Context, tenantID, bookingID string, limit int) ([]domain.BookingMessage, error)
	CountBookingMessages(ctx context.Context, tenantID, bookingID string) (int, error)
	CreateBookingMessage(ctx context.Context, tenantID string, m *domain.BookingMessage) error

	GetProfile(ctx context.Context, tenantID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, tenantID string, u ProfileUpdate) error
	TenantOwnedBy(ctx context.Context, tenantID, userID string) (bool, error)

	Close() error
}
