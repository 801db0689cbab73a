package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) Limiter {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return Limiter{Client: rdb, Prefix: "rl:"}
}

func TestAllowWithinLimit(t *testing.T) {
	l := newLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, _, err := l.Allow(ctx, "ip:1.2.3.4", time.Minute, 3)
		require.NoError(t, err)
		require.True(t, allowed, "request %d", i)
		require.Equal(t, 3-(i+1), remaining)
	}

	allowed, remaining, _, err := l.Allow(ctx, "ip:1.2.3.4", time.Minute, 3)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := newLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, _, err := l.Allow(ctx, "ip:1.1.1.1", time.Minute, 2)
		require.NoError(t, err)
	}
	allowed, _, _, err := l.Allow(ctx, "ip:2.2.2.2", time.Minute, 2)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAllowDisabledWithoutClient(t *testing.T) {
	var l Limiter
	allowed, _, _, err := l.Allow(context.Background(), "ip:1.2.3.4", time.Minute, 5)
	require.NoError(t, err)
	require.True(t, allowed)
}
