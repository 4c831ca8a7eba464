package auth

import (
	"errors"
	"fmt"
	"time"

	"factory-erp/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for every expected verification failure:
// bad signature, malformed, expired, wrong type, wrong issuer or audience.
// The underlying jwt error is wrapped alongside it.
var ErrInvalidToken = errors.New("invalid token")

type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("JWT_ACCESS_SECRET is required")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("JWT_REFRESH_SECRET is required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}, nil
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

/* ===================== ISSUE TOKENS ===================== */

func (m *Manager) IssueAccessToken(now time.Time, id Identity, sessionVersion int64) (string, time.Time, error) {
	return m.issue(now, TokenTypeAccess, id, sessionVersion, m.accessTTL, m.accessSecret)
}

func (m *Manager) IssueRefreshToken(now time.Time, id Identity, sessionVersion int64) (string, time.Time, error) {
	return m.issue(now, TokenTypeRefresh, id, sessionVersion, m.refreshTTL, m.refreshSecret)
}

// IssuePair mints both tokens from the same claim set.
func (m *Manager) IssuePair(now time.Time, id Identity, sessionVersion int64) (TokenPair, error) {
	access, accessExp, err := m.IssueAccessToken(now, id, sessionVersion)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := m.IssueRefreshToken(now, id, sessionVersion)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

/* ===================== VERIFY TOKEN ===================== */

// Verify checks a token of the expected type against that type's secret.
func (m *Manager) Verify(tokenString string, expected TokenType, now time.Time) (Claims, error) {
	secret := m.accessSecret
	if expected == TokenTypeRefresh {
		secret = m.refreshSecret
	}
	return m.VerifyWithSecret(tokenString, secret, expected, now)
}

// VerifyWithSecret is the verification primitive. A token minted with one
// secret never verifies with another. Expiry is exact: no leeway is applied.
func (m *Manager) VerifyWithSecret(tokenString string, secret []byte, expected TokenType, now time.Time) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.TokenType != expected {
		return Claims{}, fmt.Errorf("%w: token_type mismatch", ErrInvalidToken)
	}
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return Claims{}, fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}
	if claims.ID == "" {
		return Claims{}, fmt.Errorf("%w: jti missing", ErrInvalidToken)
	}

	return claims, nil
}

/* ===================== INTERNAL ISSUE ===================== */

func (m *Manager) issue(
	now time.Time,
	tokenType TokenType,
	id Identity,
	sessionVersion int64,
	ttl time.Duration,
	secret []byte,
) (string, time.Time, error) {
	if id.UserID == "" {
		return "", time.Time{}, errors.New("user id is required")
	}

	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    m.issuer,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Identity:       id,
		SessionVersion: sessionVersion,
		TokenType:      tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
