package httpapi

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiterPerKey(t *testing.T) {
	l := NewLocalLimiter(60, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "c1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := l.Allow(ctx, "c1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = l.Allow(ctx, "c2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLocalLimiterSweepsIdleBuckets(t *testing.T) {
	l := NewLocalLimiter(1, 1)
	l.ttl = time.Millisecond
	ctx := context.Background()

	_, _ = l.Allow(ctx, "c1")
	time.Sleep(5 * time.Millisecond)
	_, _ = l.Allow(ctx, "c2")

	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotContains(t, l.buckets, "c1")
	require.Contains(t, l.buckets, "c2")
}

func TestRedisLimiterIntegration(t *testing.T) {
	addr := os.Getenv("TAROT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TAROT_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLimiter(rdb, 2, time.Minute, "tarot:test:"+uuid.NewString())
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "c1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := l.Allow(ctx, "c1")
	require.NoError(t, err)
	require.False(t, ok)
}
