package account

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLimiter(rdb, 2, time.Minute)
	ctx := context.Background()
	key := attemptKey("  Clerk ")
	assert.Equal(t, "auth:login:clerk", key)

	blocked, _, err := l.Blocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, l.Fail(ctx, key))
	require.NoError(t, l.Fail(ctx, key))

	blocked, left, err := l.Blocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Greater(t, left, time.Duration(0))

	mr.FastForward(time.Minute)
	blocked, _, err = l.Blocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, l.Fail(ctx, key))
	require.NoError(t, l.Fail(ctx, key))
	require.NoError(t, l.Reset(ctx, key))
	blocked, _, err = l.Blocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestMemoryLimiter_WindowExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, l.Fail(ctx, "k"))
	blocked, left, err := l.Blocked(ctx, "k")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, time.Minute, left)

	now = now.Add(time.Minute)
	blocked, _, err = l.Blocked(ctx, "k")
	require.NoError(t, err)
	assert.False(t, blocked)
}
