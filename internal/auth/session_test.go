package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisSessionStore(rdb), mr
}

func exerciseStore(t *testing.T, store SessionStore) {
	ctx := context.Background()

	v, err := store.Version(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	require.NoError(t, CheckSession(ctx, store, Claims{Identity: Identity{UserID: "u1"}, SessionVersion: 0}))

	v, err = store.Revoke(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	// Revoking again is harmless.
	v, err = store.Revoke(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	err = CheckSession(ctx, store, Claims{Identity: Identity{UserID: "u1"}, SessionVersion: 1})
	assert.ErrorIs(t, err, ErrSessionRevoked)
	require.NoError(t, CheckSession(ctx, store, Claims{Identity: Identity{UserID: "u1"}, SessionVersion: 2}))

	ok, err := store.ConsumeRefresh(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.ConsumeRefresh(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySessionStore(t *testing.T) {
	exerciseStore(t, NewMemorySessionStore())
}

func TestRedisSessionStore(t *testing.T) {
	store, _ := newRedisStore(t)
	exerciseStore(t, store)
}

func TestRedisSessionStore_ConsumedRefreshExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	ok, err := store.ConsumeRefresh(ctx, "jti-2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = store.ConsumeRefresh(ctx, "jti-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisSessionStore_PropagatesErrors(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Version(context.Background(), "u1")
	assert.Error(t, err)
}
