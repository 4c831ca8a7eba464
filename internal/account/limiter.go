package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"factory-erp/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failed logins per key inside a fixed window.
type AttemptLimiter interface {
	// Blocked reports whether key has used up its attempts and how long
	// until the window resets.
	Blocked(ctx context.Context, key string) (bool, time.Duration, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

const attemptKeyPrefix = "auth:login:"

func attemptKey(username string) string {
	return attemptKeyPrefix + strings.ToLower(strings.TrimSpace(username))
}

// RedisLimiter shares attempt counters across API instances.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: int64(maxAttempts), window: window}
}

func (l *RedisLimiter) Blocked(ctx context.Context, key string) (bool, time.Duration, error) {
	n, left, err := utils.WindowCount(ctx, l.rdb, key)
	if err != nil {
		return false, 0, err
	}
	return n >= l.max, left, nil
}

func (l *RedisLimiter) Fail(ctx context.Context, key string) error {
	_, err := utils.HitWindow(ctx, l.rdb, key, l.window)
	return err
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, key).Err()
}

// MemoryLimiter is an in-process AttemptLimiter for tests and single-node runs.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	windows map[string]attemptWindow
}

type attemptWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryLimiter(maxAttempts int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     maxAttempts,
		window:  window,
		now:     time.Now,
		windows: map[string]attemptWindow{},
	}
}

func (l *MemoryLimiter) Blocked(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.current(key)
	if !ok {
		return false, 0, nil
	}
	return w.count >= l.max, w.resetAt.Sub(l.now()), nil
}

func (l *MemoryLimiter) Fail(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.current(key)
	if !ok {
		w = attemptWindow{resetAt: l.now().Add(l.window)}
	}
	w.count++
	l.windows[key] = w
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// current must be called with mu held.
func (l *MemoryLimiter) current(key string) (attemptWindow, bool) {
	w, ok := l.windows[key]
	if !ok {
		return attemptWindow{}, false
	}
	if !l.now().Before(w.resetAt) {
		delete(l.windows, key)
		return attemptWindow{}, false
	}
	return w, true
}
