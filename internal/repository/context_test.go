package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

func TestContextLoaderBookingWindow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()
	seedProfiles(t, store)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	// 4 upcoming, 12 past
	for i := 0; i < 4; i++ {
		require.NoError(t, store.CreateBooking(ctx, &domain.Booking{
			ID: fmt.Sprintf("up-%d", i), TenantID: "t1", ClientName: "x",
			Date: now.AddDate(0, 0, i).Format("2006-01-02"), Time: "10:00",
		}))
	}
	for i := 1; i <= 12; i++ {
		require.NoError(t, store.CreateBooking(ctx, &domain.Booking{
			ID: fmt.Sprintf("past-%d", i), TenantID: "t1", ClientName: "x",
			Date: now.AddDate(0, 0, -i).Format("2006-01-02"), Time: "10:00",
		}))
	}
	require.NoError(t, store.CreateBooking(ctx, &domain.Booking{ID: "other", TenantID: "t2", Date: "2026-03-10", Time: "10:00"}))

	loader := NewContextLoader(store, time.UTC)
	loader.now = func() time.Time { return now }

	tc, err := loader.Load(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, tc.RecentBookings, ContextBookingWindow)
	assert.Equal(t, "up-0", tc.RecentBookings[0].ID)
	assert.Equal(t, "up-3", tc.RecentBookings[3].ID)
	assert.Equal(t, "past-1", tc.RecentBookings[4].ID)
	assert.Equal(t, "past-6", tc.RecentBookings[9].ID)
	assert.Equal(t, now, tc.Now)
	require.NotNil(t, tc.Profile)
	assert.Equal(t, "One", tc.Profile.CompanyName)

	for _, b := range tc.RecentBookings {
		assert.Equal(t, "t1", b.TenantID)
	}
}

func TestContextLoaderEmptyTenant(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	seedProfiles(t, store)

	tc, err := NewContextLoader(store, nil).Load(context.Background(), "t2")
	require.NoError(t, err)
	assert.Empty(t, tc.Services)
	assert.Empty(t, tc.RecentBookings)
	assert.Empty(t, tc.Clients)
}
