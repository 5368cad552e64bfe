package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, c BalanceCache) {
	t.Helper()
	ctx := context.Background()
	user := uuid.New()

	_, version, ok, err := c.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, user, version, decimal.RequireFromString("42.50")))
	got, _, ok, err := c.Get(ctx, user)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "42.50", got.StringFixed(2))

	require.NoError(t, c.Invalidate(ctx, user))
	_, _, ok, err = c.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	// a fold started before the invalidation must not be served after it
	require.NoError(t, c.Set(ctx, user, version, decimal.RequireFromString("42.50")))
	_, newVersion, ok, err := c.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEqual(t, version, newVersion)

	require.NoError(t, c.Set(ctx, user, newVersion, decimal.RequireFromString("7")))
	got, _, ok, err = c.Get(ctx, user)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "7.00", got.StringFixed(2))
}

func TestMemoryCache(t *testing.T) {
	exercise(t, NewMemory())
}

func TestNoopNeverHits(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	var c BalanceCache = Noop{}

	require.NoError(t, c.Set(ctx, user, 0, decimal.NewFromInt(1)))
	_, _, ok, err := c.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Runs against a real Redis when REDIS_ADDR is set.
func TestRedisBalanceCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb, err := ConnectRedis(addr)
	require.NoError(t, err)
	defer rdb.Close()

	exercise(t, NewRedisBalanceCache(rdb, time.Minute))
}
