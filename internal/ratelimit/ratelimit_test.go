package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-photos-backend/internal/kv"
	"farm-photos-backend/internal/ratelimit"
)

func newLimiter(t *testing.T, window time.Duration, ceiling int) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return ratelimit.New(kv.NewClientFromRedis(rdb), window, ceiling), mr
}

func TestLimiter_AdmitsUpToCeiling(t *testing.T) {
	limiter, _ := newLimiter(t, time.Minute, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "reserve", "198.51.100.7")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be admitted", i+1)
	}

	allowed, err := limiter.Allow(ctx, "reserve", "198.51.100.7")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLimiter_WindowResets(t *testing.T) {
	limiter, mr := newLimiter(t, time.Minute, 1)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "reserve", "198.51.100.7")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "reserve", "198.51.100.7")
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(61 * time.Second)

	allowed, err = limiter.Allow(ctx, "reserve", "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter, _ := newLimiter(t, time.Minute, 1)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "reserve", "198.51.100.7")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "reserve", "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_ScopesAreIndependent(t *testing.T) {
	limiter, _ := newLimiter(t, time.Minute, 1)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "reserve", "198.51.100.7")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "confirm", "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, allowed)
}
