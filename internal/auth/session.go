package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrSessionRevoked means the token predates the user's latest logout.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrRefreshReused means a refresh token was presented a second time.
	ErrRefreshReused = errors.New("refresh token already used")
)

// SessionStore holds the server-side state that makes logout stick:
// a per-user session version and the set of consumed refresh token ids.
type SessionStore interface {
	// Version returns the current session version for userID (0 if none).
	Version(ctx context.Context, userID string) (int64, error)
	// Revoke bumps the session version, invalidating every token issued before.
	Revoke(ctx context.Context, userID string) (int64, error)
	// ConsumeRefresh marks jti as used. It reports false if jti was already used.
	ConsumeRefresh(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

// CheckSession reports ErrSessionRevoked when claims were minted under an
// older session version than the one stored for the user.
func CheckSession(ctx context.Context, store SessionStore, claims Claims) error {
	current, err := store.Version(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if claims.SessionVersion < current {
		return ErrSessionRevoked
	}
	return nil
}

// MemorySessionStore is an in-process SessionStore for tests and local runs.
type MemorySessionStore struct {
	mu       sync.Mutex
	versions map[string]int64
	used     map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		versions: map[string]int64{},
		used:     map[string]time.Time{},
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Version(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[userID], nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[userID]++
	return s.versions[userID], nil
}

func (s *MemorySessionStore) ConsumeRefresh(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.used[jti]; ok && now.Before(exp) {
		return false, nil
	}
	s.used[jti] = now.Add(ttl)
	return true, nil
}
