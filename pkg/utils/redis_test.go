package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = rdb.Close()

	_, err = OpenRedis(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

func TestHitWindow_CountsAndExpires(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := HitWindow(ctx, rdb, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	n, left, err := WindowCount(ctx, rdb, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Greater(t, left, time.Duration(0))
	assert.LessOrEqual(t, left, time.Minute)

	mr.FastForward(time.Minute + time.Second)

	n, left, err = WindowCount(ctx, rdb, "k")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, left)
}

func TestHitWindow_Validates(t *testing.T) {
	_, rdb := newMiniRedis(t)
	ctx := context.Background()

	_, err := HitWindow(ctx, nil, "k", time.Second)
	assert.Error(t, err)
	_, err = HitWindow(ctx, rdb, "", time.Second)
	assert.Error(t, err)
	_, err = HitWindow(ctx, rdb, "k", 0)
	assert.Error(t, err)
}
