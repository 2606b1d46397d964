package confirmation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIsUnguessable(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok := NewToken()
		assert.Len(t, tok, 3+64)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestRedeemOnce(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), time.Minute)

	p, err := m.Create(ctx, "delete_service", map[string]any{"service_id": "s1"}, "tenant-a", "Delete the service")
	require.NoError(t, err)

	got, err := m.Redeem(ctx, p.Token, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "delete_service", got.Tool)
	assert.Equal(t, "s1", got.Params["service_id"])

	_, err = m.Redeem(ctx, p.Token, "tenant-a")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Redeem(ctx, "", "tenant-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemForeignTenantConsumesToken(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), time.Minute)

	p, err := m.Create(ctx, "cancel_booking", map[string]any{"booking_id": "b1"}, "tenant-a", "")
	require.NoError(t, err)

	_, err = m.Redeem(ctx, p.Token, "tenant-b")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = m.Redeem(ctx, p.Token, "tenant-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	m := NewManager(store, 5*time.Minute).WithClock(func() time.Time { return now })

	expiring, err := m.Create(ctx, "delete_service", nil, "tenant-a", "")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	fresh, err := m.Create(ctx, "delete_service", nil, "tenant-a", "")
	require.NoError(t, err)

	now = now.Add(3 * time.Minute)
	_, err = m.Redeem(ctx, expiring.Token, "tenant-a")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "the expired token was already consumed by the lookup")

	now = now.Add(2 * time.Minute)
	n, err = m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, store.Len())

	_, err = m.Redeem(ctx, fresh.Token, "tenant-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentRedeem(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(rdb),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := NewManager(store, time.Minute)
			p, err := m.Create(ctx, "delete_service", map[string]any{"service_id": "s1"}, "tenant-a", "")
			require.NoError(t, err)

			var redeemed, missing atomic.Int64
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := m.Redeem(ctx, p.Token, "tenant-a")
					switch {
					case err == nil:
						redeemed.Add(1)
					case errors.Is(err, ErrNotFound):
						missing.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int64(1), redeemed.Load())
			assert.Equal(t, int64(49), missing.Load())
		})
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	m := NewManager(NewRedisStore(rdb), time.Minute)
	p, err := m.Create(ctx, "cancel_booking", map[string]any{"booking_id": "b1"}, "tenant-a", "Cancel the booking")
	require.NoError(t, err)
	assert.True(t, mr.Exists(redisKeyPrefix+p.Token))

	mr.FastForward(2 * time.Minute)
	_, err = m.Redeem(ctx, p.Token, "tenant-a")
	assert.ErrorIs(t, err, ErrNotFound)

	p, err = m.Create(ctx, "cancel_booking", map[string]any{"booking_id": "b2"}, "tenant-a", "Cancel the booking")
	require.NoError(t, err)
	got, err := m.Redeem(ctx, p.Token, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "b2", got.Params["booking_id"])
	assert.Equal(t, "Cancel the booking", got.Description)
	assert.False(t, mr.Exists(redisKeyPrefix+p.Token))
}
