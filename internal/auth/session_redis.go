package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "auth:session:"
	refreshKeyPrefix = "auth:refresh:"
)

// RedisSessionStore keeps session versions and consumed refresh ids in Redis.
// Version keys never expire; consumed refresh keys live as long as the token could.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Version(ctx context.Context, userID string) (int64, error) {
	v, err := s.rdb.Get(ctx, sessionKeyPrefix+userID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("session version: %w", err)
	}
	return v, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, userID string) (int64, error) {
	v, err := s.rdb.Incr(ctx, sessionKeyPrefix+userID).Result()
	if err != nil {
		return 0, fmt.Errorf("session revoke: %w", err)
	}
	return v, nil
}

func (s *RedisSessionStore) ConsumeRefresh(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl < time.Second {
		ttl = time.Second
	}
	ok, err := s.rdb.SetNX(ctx, refreshKeyPrefix+jti, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("refresh consume: %w", err)
	}
	return ok, nil
}
