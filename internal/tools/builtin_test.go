package tools

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
	"github.com/cvlhofrederic-art/fixit-production-sub002/tests/helpers"
)

func newBuiltin(t *testing.T) (*Registry, *repository.SQLiteStore, time.Time) {
	t.Helper()
	store := helpers.NewSeededStore(t)
	now := time.Now().UTC()
	r := NewBuiltinRegistry(store, Options{Location: time.UTC, Now: func() time.Time { return now }})
	return r, store, now
}

func run(t *testing.T, r *Registry, name, tenantID string, p Params) domain.ToolResult {
	t.Helper()
	return r.Execute(context.Background(), name, p, tenantID)
}

func TestForeignTenantRecordsAreNotFound(t *testing.T) {
	r, store, _ := newBuiltin(t)
	ctx := context.Background()
	foreignBooking := helpers.TenantB + "-bk-1"
	foreignService := helpers.TenantB + "-svc-1"

	calls := []struct {
		tool   string
		params Params
	}{
		{GetBookingDetail, Params{"booking_id": foreignBooking}},
		{ConfirmBooking, Params{"booking_id": foreignBooking}},
		{CancelBooking, Params{"booking_id": foreignBooking}},
		{RescheduleBooking, Params{"booking_id": foreignBooking, "new_date": "2030-01-02"}},
		{ListBookingMessages, Params{"booking_id": foreignBooking}},
		{SendBookingMessage, Params{"booking_id": foreignBooking, "content": "hello"}},
		{ToggleServiceActive, Params{"service_id": foreignService, "active": false}},
		{UpdateService, Params{"service_id": foreignService, "name": "Hijacked"}},
		{DeleteService, Params{"service_id": foreignService}},
		{CreateBooking, Params{"client_name": "X", "date": "2030-01-02", "time": "10:00", "service_id": foreignService}},
		{LinkServicesToDays, Params{"day_of_week": 1, "service_ids": []any{foreignService}, "mode": "add"}},
	}
	for _, c := range calls {
		res := run(t, r, c.tool, helpers.TenantA, c.params)
		assert.False(t, res.Success, c.tool)
		assert.Contains(t, res.Detail, "not found", c.tool)
	}

	b, err := store.GetBooking(ctx, helpers.TenantB, foreignBooking)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, b.Status)
	assert.NotEqual(t, "2030-01-02", b.Date)

	svc, err := store.GetService(ctx, helpers.TenantB, foreignService)
	require.NoError(t, err)
	assert.Equal(t, "Repair", svc.Name)
	assert.True(t, svc.Active)

	n, err := store.CountBookingMessages(ctx, helpers.TenantB, foreignBooking)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSetDayAvailability(t *testing.T) {
	r, store, _ := newBuiltin(t)
	ctx := context.Background()

	res := run(t, r, SetDayAvailability, helpers.TenantA, Params{"day_of_week": float64(3), "is_available": true})
	require.True(t, res.Success, res.Detail)
	wed, err := store.GetAvailability(ctx, helpers.TenantA, 3)
	require.NoError(t, err)
	require.NotNil(t, wed)
	assert.Equal(t, "08:00", wed.StartTime)
	assert.Equal(t, "17:00", wed.EndTime)

	res = run(t, r, SetDayAvailability, helpers.TenantA, Params{"day_of_week": "all", "is_available": false})
	require.True(t, res.Success, res.Detail)
	assert.Contains(t, res.Detail, "7 day(s) closed")

	days, err := store.ListAvailability(ctx, helpers.TenantA)
	require.NoError(t, err)
	require.Len(t, days, 2)
	for _, d := range days {
		assert.False(t, d.IsAvailable, d.DayOfWeek)
	}

	list := run(t, r, ListAvailability, helpers.TenantA, nil)
	require.True(t, list.Success)
	assert.Contains(t, list.Detail, "Monday: CLOSED")

	other, err := store.GetAvailability(ctx, helpers.TenantB, 1)
	require.NoError(t, err)
	assert.True(t, other.IsAvailable)

	res = run(t, r, SetDayAvailability, helpers.TenantA, Params{"day_of_week": float64(9), "is_available": true})
	assert.False(t, res.Success)
}

func TestUpdateAvailabilityHours(t *testing.T) {
	r, store, _ := newBuiltin(t)
	ctx := context.Background()

	res := run(t, r, UpdateAvailabilityHours, helpers.TenantA, Params{"day_of_week": "all", "start_time": "18:00"})
	assert.False(t, res.Success)
	mon, err := store.GetAvailability(ctx, helpers.TenantA, 1)
	require.NoError(t, err)
	assert.Equal(t, "08:00", mon.StartTime)
	days, err := store.ListAvailability(ctx, helpers.TenantA)
	require.NoError(t, err)
	assert.Len(t, days, 1)

	res = run(t, r, UpdateAvailabilityHours, helpers.TenantA, Params{"day_of_week": float64(1), "start_time": "7h30"})
	require.True(t, res.Success, res.Detail)
	mon, err = store.GetAvailability(ctx, helpers.TenantA, 1)
	require.NoError(t, err)
	assert.Equal(t, "07:30", mon.StartTime)
	assert.Equal(t, "17:00", mon.EndTime)

	res = run(t, r, UpdateAvailabilityHours, helpers.TenantA, Params{"day_of_week": "friday", "end_time": "12:00"})
	require.True(t, res.Success, res.Detail)
	fri, err := store.GetAvailability(ctx, helpers.TenantA, 5)
	require.NoError(t, err)
	require.NotNil(t, fri)
	assert.Equal(t, "08:00", fri.StartTime)
	assert.Equal(t, "12:00", fri.EndTime)

	res = run(t, r, UpdateAvailabilityHours, helpers.TenantA, Params{"day_of_week": float64(1)})
	assert.False(t, res.Success)
}

func TestServiceTools(t *testing.T) {
	r, store, _ := newBuiltin(t)
	ctx := context.Background()

	res := run(t, r, CreateService, helpers.TenantA, Params{"name": "Diagnostic", "price_ttc": float64(60)})
	require.True(t, res.Success, res.Detail)
	created := res.Data.(*domain.Service)
	assert.Equal(t, 50.0, created.PriceHT)
	assert.Equal(t, 60, created.DurationMinutes)
	assert.True(t, created.Active)

	res = run(t, r, CreateService, helpers.TenantA, Params{"name": "Bad", "price_ht": float64(-1)})
	assert.False(t, res.Success)

	res = run(t, r, UpdateService, helpers.TenantA, Params{"service_id": created.ID, "duration_minutes": float64(30)})
	require.True(t, res.Success, res.Detail)
	assert.Equal(t, 30, res.Data.(*domain.Service).DurationMinutes)

	res = run(t, r, UpdateService, helpers.TenantA, Params{"service_id": created.ID})
	assert.False(t, res.Success)

	res = run(t, r, ToggleServiceActive, helpers.TenantA, Params{"service_id": "all", "active": false})
	require.True(t, res.Success, res.Detail)
	assert.Equal(t, "2 service(s) deactivated", res.Detail)

	services, err := store.ListServices(ctx, helpers.TenantA)
	require.NoError(t, err)
	for _, s := range services {
		assert.False(t, s.Active, s.Name)
	}
	other, err := store.GetService(ctx, helpers.TenantB, helpers.TenantB+"-svc-1")
	require.NoError(t, err)
	assert.True(t, other.Active)

	list := run(t, r, ListServices, helpers.TenantA, nil)
	assert.Contains(t, list.Detail, "[inactive] Diagnostic (id "+created.ID+")")

	def, _ := r.Lookup(DeleteService)
	assert.Equal(t, `Delete the service "Diagnostic" permanently`,
		def.Describe(ctx, Params{"service_id": created.ID}, helpers.TenantA))

	res = run(t, r, DeleteService, helpers.TenantA, Params{"service_id": created.ID})
	require.True(t, res.Success, res.Detail)
	gone, err := store.GetService(ctx, helpers.TenantA, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestLinkServicesToDays(t *testing.T) {
	r, store, _ := newBuiltin(t)
	ctx := context.Background()
	svc := helpers.TenantA + "-svc-1"
	extra := helpers.SeedService(t, store, helpers.TenantA, "a-svc-2", "Install", true)
	helpers.SeedService(t, store, helpers.TenantA, "a-svc-3", "Archived", false)

	res := run(t, r, LinkServicesToDays, helpers.TenantA, Params{"day_of_week": float64(1), "service_ids": []any{svc}, "mode": "add"})
	require.True(t, res.Success, res.Detail)
	res = run(t, r, LinkServicesToDays, helpers.TenantA, Params{"day_of_week": float64(1), "service_ids": extra.ID, "mode": "add"})
	require.True(t, res.Success, res.Detail)

	ds, err := store.GetDayServices(ctx, helpers.TenantA)
	require.NoError(t, err)
	assert.Equal(t, []string{svc, extra.ID}, ds[1])

	res = run(t, r, LinkServicesToDays, helpers.TenantA, Params{"day_of_week": float64(1), "service_ids": []any{svc}, "mode": "remove"})
	require.True(t, res.Success, res.Detail)
	ds, err = store.GetDayServices(ctx, helpers.TenantA)
	require.NoError(t, err)
	assert.Equal(t, []string{extra.ID}, ds[1])

	// "all" services means the active ones, "all" days means the open ones.
	res = run(t, r, LinkServicesToDays, helpers.TenantA, Params{"day_of_week": "all", "service_ids": "all", "mode": "set"})
	require.True(t, res.Success, res.Detail)
	assert.Equal(t, "2 service(s) linked to Monday", res.Detail)
	ds, err = store.GetDayServices(ctx, helpers.TenantA)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{svc, extra.ID}, ds[1])
	assert.Empty(t, ds[2])

	res = run(t, r, LinkServicesToDays, helpers.TenantA, Params{"day_of_week": float64(1), "service_ids": "all", "mode": "merge"})
	assert.False(t, res.Success)
}

func TestBookingLifecycle(t *testing.T) {
	r, store, _ := newBuiltin(t)
	ctx := context.Background()
	id := helpers.TenantA + "-bk-1"

	res := run(t, r, ListBookings, helpers.TenantA, nil)
	require.True(t, res.Success, res.Detail)
	assert.Contains(t, res.Detail, "[id "+id+"]")
	assert.NotContains(t, res.Detail, helpers.TenantB)

	res = run(t, r, ConfirmBooking, helpers.TenantA, Params{"booking_id": id})
	require.True(t, res.Success, res.Detail)
	res = run(t, r, ConfirmBooking, helpers.TenantA, Params{"booking_id": id})
	require.True(t, res.Success)
	assert.Contains(t, res.Detail, "already confirmed")

	res = run(t, r, RescheduleBooking, helpers.TenantA, Params{"booking_id": id, "new_date": "2031-04-01", "new_time": "9h"})
	require.True(t, res.Success, res.Detail)
	b, err := store.GetBooking(ctx, helpers.TenantA, id)
	require.NoError(t, err)
	assert.Equal(t, "2031-04-01", b.Date)
	assert.Equal(t, "09:00", b.Time)
	assert.Equal(t, domain.BookingStatusConfirmed, b.Status)

	def, _ := r.Lookup(CancelBooking)
	assert.Equal(t, "Cancel the booking of Jean Dupont on 2031-04-01 at 09:00",
		def.Describe(ctx, Params{"booking_id": id}, helpers.TenantA))

	res = run(t, r, CancelBooking, helpers.TenantA, Params{"booking_id": id})
	require.True(t, res.Success, res.Detail)
	res = run(t, r, CancelBooking, helpers.TenantA, Params{"booking_id": id})
	assert.False(t, res.Success)
	res = run(t, r, ConfirmBooking, helpers.TenantA, Params{"booking_id": id})
	assert.False(t, res.Success)
	res = run(t, r, RescheduleBooking, helpers.TenantA, Params{"booking_id": id, "new_time": "11:00"})
	assert.False(t, res.Success)

	res = run(t, r, ListBookings, helpers.TenantA, Params{"status": "archived"})
	assert.False(t, res.Success)
	res = run(t, r, ListBookings, helpers.TenantA, Params{"period": "someday"})
	assert.False(t, res.Success)
}

func TestListBookingsLimit(t *testing.T) {
	r, store, now := newBuiltin(t)
	for i := 0; i < 25; i++ {
		helpers.SeedBooking(t, store, &domain.Booking{
			ID:       fmt.Sprintf("bulk-%02d", i),
			TenantID: helpers.TenantA,
			Date:     now.AddDate(0, 0, i+3).Format("2006-01-02"),
			Time:     "08:00",
			Status:   domain.BookingStatusConfirmed,
		})
	}

	res := run(t, r, ListBookings, helpers.TenantA, nil)
	require.True(t, res.Success)
	assert.Len(t, res.Data, defaultBookingLimit)

	res = run(t, r, ListBookings, helpers.TenantA, Params{"limit": float64(100), "status": "confirmed"})
	require.True(t, res.Success)
	bookings := res.Data.([]domain.Booking)
	require.Len(t, bookings, maxBookingLimit)
	assert.Equal(t, "bulk-00", bookings[0].ID)

	res = run(t, r, ListBookings, helpers.TenantA, Params{"period": "today"})
	require.True(t, res.Success)
	assert.Equal(t, "No bookings found.", res.Detail)
}

func TestCreateBooking(t *testing.T) {
	r, _, _ := newBuiltin(t)

	res := run(t, r, CreateBooking, helpers.TenantA, Params{
		"client_name": "Marie Curie",
		"date":        "2031-05-06",
		"time":        "14h30",
		"service_id":  helpers.TenantA + "-svc-1",
	})
	require.True(t, res.Success, res.Detail)
	b := res.Data.(*domain.Booking)
	assert.Equal(t, domain.BookingStatusConfirmed, b.Status)
	assert.Equal(t, "14:30", b.Time)
	assert.Equal(t, "To be defined", b.Address)
	assert.Equal(t, 120.0, b.PriceTTC)
	assert.Equal(t, "Repair", b.ServiceName)

	for _, p := range []Params{
		{"client_name": "X", "date": "2031-02-30", "time": "10:00"},
		{"client_name": "X", "date": "2031-02-03", "time": "25:00"},
		{"date": "2031-02-03", "time": "10:00"},
		{"client_name": "X", "date": "2031-02-03", "time": "10:00", "service_id": "missing"},
	} {
		res := run(t, r, CreateBooking, helpers.TenantA, p)
		assert.False(t, res.Success, "%v", p)
	}
}

func TestClientTools(t *testing.T) {
	r, store, now := newBuiltin(t)
	c := helpers.SeedClient(t, store, "client-1", "Marie Curie")
	helpers.SeedBooking(t, store, &domain.Booking{
		ID: "done-1", TenantID: helpers.TenantA, ClientID: c.ID,
		Date: now.AddDate(0, 0, -5).Format("2006-01-02"), Time: "10:00",
		Status: domain.BookingStatusCompleted, PriceTTC: 200,
	})

	res := run(t, r, ListClients, helpers.TenantA, Params{"search": "curie"})
	require.True(t, res.Success, res.Detail)
	assert.Contains(t, res.Detail, "Marie Curie")
	assert.Contains(t, res.Detail, "revenue: 200.00 EUR")

	res = run(t, r, ListClients, helpers.TenantB, nil)
	require.True(t, res.Success)
	assert.Equal(t, "No clients found.", res.Detail)

	res = run(t, r, GetClientDetails, helpers.TenantA, Params{"client_name": "marie"})
	require.True(t, res.Success, res.Detail)
	assert.Contains(t, res.Detail, "Email: Marie Curie@example.com")
	assert.Contains(t, res.Detail, "completed - 200.00 EUR")

	res = run(t, r, GetClientDetails, helpers.TenantA, Params{"client_name": "nobody"})
	require.True(t, res.Success)
	assert.Contains(t, res.Detail, "No client")
}

func TestBookingMessages(t *testing.T) {
	r, store, _ := newBuiltin(t)
	ctx := context.Background()
	id := helpers.TenantA + "-bk-1"

	res := run(t, r, ListBookingMessages, helpers.TenantA, Params{"booking_id": id})
	require.True(t, res.Success, res.Detail)
	assert.Equal(t, "No messages for this booking.", res.Detail)

	res = run(t, r, SendBookingMessage, helpers.TenantA, Params{"booking_id": id, "content": "  On my way  "})
	require.True(t, res.Success, res.Detail)
	msg := res.Data.(*domain.BookingMessage)
	assert.Equal(t, "On my way", msg.Content)
	assert.Equal(t, helpers.UserA, msg.SenderID)
	assert.Equal(t, "Plomberie A", msg.SenderName)

	res = run(t, r, ListBookingMessages, helpers.TenantA, Params{"booking_id": id})
	require.True(t, res.Success)
	assert.Contains(t, res.Detail, "[You] On my way")

	res = run(t, r, GetBookingDetail, helpers.TenantA, Params{"booking_id": id})
	require.True(t, res.Success)
	assert.Contains(t, res.Detail, "Messages: 1")

	res = run(t, r, SendBookingMessage, helpers.TenantA, Params{"booking_id": id, "content": "   "})
	assert.False(t, res.Success)

	n, err := store.CountBookingMessages(ctx, helpers.TenantA, id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProfileTools(t *testing.T) {
	r, store, _ := newBuiltin(t)
	ctx := context.Background()

	res := run(t, r, UpdateProfile, helpers.TenantA, Params{"company_name": "Plomberie Alpha", "zone_radius_km": float64(25)})
	require.True(t, res.Success, res.Detail)
	p, err := store.GetProfile(ctx, helpers.TenantA)
	require.NoError(t, err)
	assert.Equal(t, "Plomberie Alpha", p.CompanyName)
	assert.Equal(t, 25.0, p.ZoneRadiusKm)

	res = run(t, r, UpdateProfile, helpers.TenantA, Params{"company_name": ""})
	assert.False(t, res.Success)
	res = run(t, r, UpdateSettings, helpers.TenantA, Params{})
	assert.False(t, res.Success)

	res = run(t, r, UpdateSettings, helpers.TenantA, Params{"auto_block_duration_minutes": float64(45)})
	require.True(t, res.Success, res.Detail)
	p, err = store.GetProfile(ctx, helpers.TenantA)
	require.NoError(t, err)
	assert.Equal(t, 45, p.AutoBlockDurationMinutes)

	res = run(t, r, GetCompanyInfo, helpers.TenantA, nil)
	require.True(t, res.Success)
	assert.Contains(t, res.Detail, "No SIRET")
}

func TestAccountingTools(t *testing.T) {
	store := helpers.NewSeededStore(t)
	now := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	r := NewBuiltinRegistry(store, Options{Now: func() time.Time { return now }})

	for _, b := range []domain.Booking{
		{ID: "q1", Date: "2025-02-10", Status: domain.BookingStatusCompleted, PriceHT: 100, PriceTTC: 120},
		{ID: "q2", Date: "2025-05-10", Status: domain.BookingStatusCompleted, PriceTTC: 240},
		{ID: "q2-cancelled", Date: "2025-05-11", Status: domain.BookingStatusCancelled, PriceTTC: 999},
		{ID: "prev-year", Date: "2024-12-31", Status: domain.BookingStatusCompleted, PriceTTC: 999},
	} {
		b := b
		b.TenantID = helpers.TenantA
		b.Time = "10:00"
		helpers.SeedBooking(t, store, &b)
	}

	res := run(t, r, GetRevenueSummary, helpers.TenantA, Params{"period": "year"})
	require.True(t, res.Success, res.Detail)
	summary := res.Data.(RevenueSummary)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 360, summary.RevenueTTC, 0.001)
	assert.InDelta(t, 300, summary.RevenueHT, 0.001)
	assert.InDelta(t, 60, summary.VAT, 0.001)

	res = run(t, r, GetRevenueSummary, helpers.TenantA, Params{"period": "quarter", "quarter": float64(2)})
	require.True(t, res.Success, res.Detail)
	assert.Equal(t, "2025-04-01", res.Data.(RevenueSummary).From)
	assert.Equal(t, 1, res.Data.(RevenueSummary).Count)

	res = run(t, r, GetRevenueSummary, helpers.TenantA, nil)
	require.True(t, res.Success)
	assert.Equal(t, "No completed bookings for 2025-11.", res.Detail)

	res = run(t, r, GetRevenueSummary, helpers.TenantA, Params{"month": float64(13)})
	assert.False(t, res.Success)

	res = run(t, r, GetQuarterlyData, helpers.TenantA, nil)
	require.True(t, res.Success, res.Detail)
	data := res.Data.(QuarterlyData)
	assert.Equal(t, 2025, data.Year)
	assert.InDelta(t, 100, data.QuarterHT[0], 0.001)
	assert.InDelta(t, 200, data.QuarterHT[1], 0.001)
	assert.InDelta(t, 300, data.AnnualHT, 0.001)
	assert.InDelta(t, 63.6, data.Contributions, 0.001)
	assert.True(t, data.UnderCeiling)

	res = run(t, r, GetQuarterlyData, helpers.TenantB, Params{"year": float64(2025)})
	require.True(t, res.Success)
	assert.Zero(t, res.Data.(QuarterlyData).AnnualHT)
}

func TestNavigationAndDocuments(t *testing.T) {
	r := NewBuiltinRegistry(nil, Options{})

	res := run(t, r, NavigateTo, helpers.TenantA, Params{"page": "Calendar"})
	require.True(t, res.Success)
	assert.Equal(t, NavigationData{Page: "calendar"}, res.Data)

	res = run(t, r, NavigateTo, helpers.TenantA, nil)
	require.True(t, res.Success)
	assert.Equal(t, NavigationData{Page: "home"}, res.Data)

	res = run(t, r, NavigateTo, helpers.TenantA, Params{"page": "admin"})
	assert.False(t, res.Success)

	res = run(t, r, CreateQuote, helpers.TenantA, Params{
		"clientName": "Marie",
		"amount":     float64(120),
		"service":    map[string]any{"nested": true},
		"artisan_id": helpers.TenantB,
	})
	require.True(t, res.Success)
	draft := res.Data.(DocumentDraft)
	assert.Equal(t, domain.ClientActionOpenQuoteForm, draft.Action)
	assert.Equal(t, map[string]any{"clientName": "Marie", "amount": float64(120)}, draft.Fields)
}
