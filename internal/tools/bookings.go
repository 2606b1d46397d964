package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
)

const (
	defaultBookingLimit = 10
	maxBookingLimit     = 20
)

func (ts *toolset) registerBookings(r *Registry) {
	r.MustRegister(Definition{
		Name:        ListBookings,
		Description: `List bookings. status: "pending"|"confirmed"|"cancelled"|"completed"|"all". period: "upcoming"|"past"|"today"|"this_week"|"all"`,
		Params:      "{ status?: string, period?: string, limit?: number }",
		Kind:        domain.ToolKindRead,
		Execute:     ts.listBookings,
	})
	r.MustRegister(Definition{
		Name:        GetBookingDetail,
		Description: "Get the full detail of a booking (date, time, service, client, address, status, price, message count)",
		Params:      "{ booking_id: string }",
		Kind:        domain.ToolKindRead,
		Execute:     ts.getBookingDetail,
	})
	r.MustRegister(Definition{
		Name:        ConfirmBooking,
		Description: "Confirm a pending booking",
		Params:      "{ booking_id: string }",
		Kind:        domain.ToolKindWrite,
		Execute:     ts.confirmBooking,
	})
	r.MustRegister(Definition{
		Name:                 CancelBooking,
		Description:          "Cancel a booking (irreversible)",
		Params:               "{ booking_id: string }",
		Kind:                 domain.ToolKindWrite,
		RequiresConfirmation: true,
		Execute:              ts.cancelBooking,
		Describe:             ts.describeCancelBooking,
	})
	r.MustRegister(Definition{
		Name:        RescheduleBooking,
		Description: "Move a booking to another date and/or time",
		Params:      `{ booking_id: string, new_date?: "YYYY-MM-DD", new_time?: "HH:MM" }`,
		Kind:        domain.ToolKindWrite,
		Execute:     ts.rescheduleBooking,
	})
	r.MustRegister(Definition{
		Name:        CreateBooking,
		Description: "Create a new confirmed booking",
		Params:      `{ client_name: string, date: "YYYY-MM-DD", time: "HH:MM", service_id?: string, address?: string, notes?: string, duration_minutes?: number }`,
		Kind:        domain.ToolKindWrite,
		Execute:     ts.createBooking,
	})
}

func formatBooking(b domain.Booking) string {
	service := b.ServiceName
	if service == "" {
		service = "Intervention"
	}
	client := b.ClientName
	if client == "" {
		client = "Unknown client"
	}
	return fmt.Sprintf("%s at %s - %s - %s (%s) [id %s]", b.Date, truncate(b.Time, 5), service, client, b.Status, b.ID)
}

func (ts *toolset) listBookings(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	var f repository.BookingFilter

	status := strings.ToLower(p.String("status"))
	if status != "" && status != "all" {
		if !domain.BookingStatus(status).Valid() {
			return fail("Invalid status %q: expected pending, confirmed, cancelled, completed or all.", status)
		}
		f.Status = domain.BookingStatus(status)
	}

	now := ts.today()
	today := now.Format("2006-01-02")
	switch period := strings.ToLower(p.String("period")); period {
	case "", "upcoming":
		f.From = today
	case "past":
		f.Before = today
		f.Descending = true
	case "today":
		f.On = today
	case "this_week":
		monday := weekStart(now)
		f.From = monday.Format("2006-01-02")
		f.Before = monday.AddDate(0, 0, 7).Format("2006-01-02")
	case "all":
		f.Descending = true
	default:
		return fail("Invalid period %q: expected upcoming, past, today, this_week or all.", period)
	}

	limit, present, err := p.Int("limit")
	if err != nil {
		return fail("%s", err.Error())
	}
	if !present || limit <= 0 {
		limit = defaultBookingLimit
	}
	if limit > maxBookingLimit {
		limit = maxBookingLimit
	}
	f.Limit = limit

	bookings, err := ts.store.ListBookings(ctx, tenantID, f)
	if err != nil {
		return ts.storeFailure(ListBookings, err, "")
	}
	if len(bookings) == 0 {
		return ok("No bookings found.", []domain.Booking{})
	}
	lines := make([]string, 0, len(bookings))
	for _, b := range bookings {
		lines = append(lines, formatBooking(b))
	}
	return ok(strings.Join(lines, "\n"), bookings)
}

// loadBooking resolves the booking_id param against the tenant's bookings.
func (ts *toolset) loadBooking(ctx context.Context, tool string, p Params, tenantID string) (*domain.Booking, *domain.ToolResult) {
	id := p.String("booking_id")
	if id == "" {
		r := fail("booking_id is required.")
		return nil, &r
	}
	b, err := ts.store.GetBooking(ctx, tenantID, id)
	if err != nil {
		r := ts.storeFailure(tool, err, "")
		return nil, &r
	}
	if b == nil {
		r := fail("Booking %s not found.", id)
		return nil, &r
	}
	return b, nil
}

func (ts *toolset) getBookingDetail(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	b, res := ts.loadBooking(ctx, GetBookingDetail, p, tenantID)
	if res != nil {
		return *res
	}
	count, err := ts.store.CountBookingMessages(ctx, tenantID, b.ID)
	if err != nil {
		return ts.storeFailure(GetBookingDetail, err, "")
	}

	service := b.ServiceName
	if service == "" {
		service = "Intervention"
	}
	client := b.ClientName
	if client == "" {
		client = "Unknown client"
	}
	address := b.Address
	if address == "" {
		address = "Not set"
	}
	lines := []string{
		fmt.Sprintf("Date: %s at %s", b.Date, truncate(b.Time, 5)),
		"Client: " + client,
		"Service: " + service,
		"Address: " + address,
		fmt.Sprintf("Price incl. VAT: %.2f EUR", b.PriceTTC),
		"Status: " + string(b.Status),
		fmt.Sprintf("Messages: %d", count),
	}
	if b.Notes != "" {
		lines = append(lines, "Notes: "+b.Notes)
	}
	return ok(strings.Join(lines, "\n"), map[string]any{"booking": b, "messages_count": count})
}

func (ts *toolset) confirmBooking(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	b, res := ts.loadBooking(ctx, ConfirmBooking, p, tenantID)
	if res != nil {
		return *res
	}
	switch b.Status {
	case domain.BookingStatusCancelled:
		return fail("Booking %s is cancelled and cannot be confirmed.", b.ID)
	case domain.BookingStatusConfirmed:
		return ok(fmt.Sprintf("Booking of %s on %s was already confirmed", b.ClientName, b.Date), nil)
	}

	status := domain.BookingStatusConfirmed
	now := ts.now()
	if err := ts.store.UpdateBooking(ctx, tenantID, b.ID, repository.BookingUpdate{Status: &status, ConfirmedAt: &now}); err != nil {
		return ts.storeFailure(ConfirmBooking, err, fmt.Sprintf("Booking %s not found.", b.ID))
	}
	return ok(fmt.Sprintf("Booking of %s on %s at %s confirmed", b.ClientName, b.Date, truncate(b.Time, 5)), nil)
}

func (ts *toolset) cancelBooking(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	b, res := ts.loadBooking(ctx, CancelBooking, p, tenantID)
	if res != nil {
		return *res
	}
	if b.Status == domain.BookingStatusCancelled {
		return fail("Booking %s is already cancelled.", b.ID)
	}

	status := domain.BookingStatusCancelled
	now := ts.now()
	if err := ts.store.UpdateBooking(ctx, tenantID, b.ID, repository.BookingUpdate{Status: &status, CancelledAt: &now}); err != nil {
		return ts.storeFailure(CancelBooking, err, fmt.Sprintf("Booking %s not found.", b.ID))
	}
	return ok(fmt.Sprintf("Booking of %s on %s at %s cancelled", b.ClientName, b.Date, truncate(b.Time, 5)), nil)
}

func (ts *toolset) describeCancelBooking(ctx context.Context, p Params, tenantID string) string {
	b, err := ts.store.GetBooking(ctx, tenantID, p.String("booking_id"))
	if err != nil || b == nil {
		return "Cancel a booking"
	}
	client := b.ClientName
	if client == "" {
		client = "a client"
	}
	return fmt.Sprintf("Cancel the booking of %s on %s at %s", client, b.Date, truncate(b.Time, 5))
}

func (ts *toolset) rescheduleBooking(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	var u repository.BookingUpdate
	var desc []string
	if raw := p.String("new_date"); raw != "" {
		d, err := Date(raw)
		if err != nil {
			return fail("%s", err.Error())
		}
		u.Date = &d
		desc = append(desc, "on "+d)
	}
	if raw := p.String("new_time"); raw != "" {
		t, err := Clock(raw)
		if err != nil {
			return fail("%s", err.Error())
		}
		u.Time = &t
		desc = append(desc, "at "+t)
	}
	if u.Date == nil && u.Time == nil {
		return fail("No new date or time given.")
	}

	b, res := ts.loadBooking(ctx, RescheduleBooking, p, tenantID)
	if res != nil {
		return *res
	}
	if b.Status == domain.BookingStatusCancelled {
		return fail("Booking %s is cancelled and cannot be moved.", b.ID)
	}
	if err := ts.store.UpdateBooking(ctx, tenantID, b.ID, u); err != nil {
		return ts.storeFailure(RescheduleBooking, err, fmt.Sprintf("Booking %s not found.", b.ID))
	}
	return ok("Booking moved "+strings.Join(desc, " "), nil)
}

func (ts *toolset) createBooking(ctx context.Context, p Params, tenantID string) domain.ToolResult {
	date, err := Date(p.String("date"))
	if err != nil {
		return fail("%s", err.Error())
	}
	clock, err := Clock(p.String("time"))
	if err != nil {
		return fail("%s", err.Error())
	}
	client := p.String("client_name")
	if client == "" {
		return fail("Client name is required.")
	}

	duration, present, err := p.Int("duration_minutes")
	if err != nil {
		return fail("%s", err.Error())
	}
	if !present || duration <= 0 {
		duration = 60
	}

	now := ts.now()
	b := &domain.Booking{
		TenantID:        tenantID,
		ClientName:      client,
		Date:            date,
		Time:            clock,
		DurationMinutes: duration,
		Address:         p.String("address"),
		Notes:           p.String("notes"),
		Status:          domain.BookingStatusConfirmed,
		ConfirmedAt:     &now,
		CreatedAt:       now,
	}
	if b.Address == "" {
		b.Address = "To be defined"
	}

	if id := p.String("service_id"); id != "" {
		svc, err := ts.store.GetService(ctx, tenantID, id)
		if err != nil {
			return ts.storeFailure(CreateBooking, err, "")
		}
		if svc == nil {
			return fail("Service %s not found.", id)
		}
		b.ServiceID = svc.ID
		b.ServiceName = svc.Name
		b.PriceHT = svc.PriceHT
		b.PriceTTC = svc.PriceTTC
		if svc.DurationMinutes > 0 {
			b.DurationMinutes = svc.DurationMinutes
		}
	}

	if err := ts.store.CreateBooking(ctx, b); err != nil {
		return ts.storeFailure(CreateBooking, err, "")
	}
	return ok(fmt.Sprintf("Booking created on %s at %s with %s (id %s)", date, clock, client, b.ID), b)
}

// weekStart returns the Monday of t's week.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
