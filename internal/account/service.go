// Package account drives the login, register, refresh, logout and
// company-switch lifecycles. Every operation returns either a result or an
// *apperr.Error; raw storage errors never escape.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"factory-erp/internal/apperr"
	"factory-erp/internal/appstate"
	"factory-erp/internal/audit"
	"factory-erp/internal/auth"
	"factory-erp/internal/users"
	"factory-erp/pkg/logger"

	"github.com/google/uuid"
)

const msgBadCredentials = "invalid username or password"

// Session is the result of a successful login, refresh or company switch.
type Session struct {
	Tokens  auth.TokenPair
	Profile appstate.State
}

type Service struct {
	users    users.Repository
	tokens   *auth.Manager
	sessions auth.SessionStore
	limiter  AttemptLimiter
	audit    *audit.Service
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

type Option func(*Service)

// WithLimiter enables failed-login throttling.
func WithLimiter(l AttemptLimiter) Option { return func(s *Service) { s.limiter = l } }

// WithAudit records auth events. Recording is best-effort.
func WithAudit(a *audit.Service) Option { return func(s *Service) { s.audit = a } }

func WithClock(clock func() time.Time) Option { return func(s *Service) { s.clock = clock } }

func NewService(repo users.Repository, tokens *auth.Manager, sessions auth.SessionStore, opts ...Option) *Service {
	s := &Service{
		users:    repo,
		tokens:   tokens,
		sessions: sessions,
		clock:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

/* ===================== LOGIN ===================== */

func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.normalize()
	if err := check(in); err != nil {
		return Session{}, err
	}

	key := attemptKey(in.Username)
	if s.limiter != nil {
		blocked, _, err := s.limiter.Blocked(ctx, key)
		if err != nil {
			return Session{}, s.internal(ctx, "login throttle lookup failed", err)
		}
		if blocked {
			return Session{}, apperr.RateLimited("too many failed login attempts, try again later")
		}
	}

	u, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return Session{}, s.internal(ctx, "find user failed", err)
	}
	if err != nil {
		// Same bcrypt cost as a wrong password for a known user.
		users.RejectPassword(in.Password)
		s.loginFailed(ctx, key, in.Username, "")
		return Session{}, apperr.Unauthorized(msgBadCredentials)
	}
	if !users.CheckPassword(u.PasswordHash, in.Password) {
		s.loginFailed(ctx, key, in.Username, u.ID)
		return Session{}, apperr.Unauthorized(msgBadCredentials)
	}
	if !u.IsActive {
		return Session{}, apperr.Unauthorized("account is disabled")
	}

	list, err := s.users.ListAccess(ctx, u.ID)
	if err != nil {
		return Session{}, s.internal(ctx, "list company access failed", err)
	}
	current, err := s.companyForLogin(ctx, u, list, in.CompanyCode)
	if err != nil {
		return Session{}, err
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, key); err != nil {
			logger.From(ctx).WarnContext(ctx, "reset login attempts failed", "user_id", u.ID, "err", err)
		}
	}

	sess, err := s.mint(ctx, u, list, current)
	if err != nil {
		return Session{}, err
	}
	s.record(ctx, audit.EventLoginSucceeded, u.ID, current)
	return sess, nil
}

// companyForLogin picks the company the new session acts in. An explicit
// code must match one of the user's companies; super-admins may enter any
// active company. With no code the default access record is used.
func (s *Service) companyForLogin(ctx context.Context, u users.User, list []users.CompanyAccess, code string) (string, error) {
	if code == "" {
		if a, ok := users.PickAccess(list, ""); ok {
			return a.CompanyID, nil
		}
		return "", nil
	}

	for _, a := range list {
		if strings.EqualFold(a.CompanyCode, code) {
			return a.CompanyID, nil
		}
	}
	if !u.IsSuperAdmin {
		return "", apperr.Unauthorized("no access to company " + code)
	}

	c, err := s.users.FindCompanyByCode(ctx, code)
	switch {
	case errors.Is(err, users.ErrNotFound):
		return "", apperr.Unauthorized("unknown company " + code)
	case err != nil:
		return "", s.internal(ctx, "find company failed", err)
	case !c.IsActive:
		return "", apperr.Unauthorized("company " + code + " is inactive")
	}
	return c.ID, nil
}

func (s *Service) loginFailed(ctx context.Context, key, username, userID string) {
	if s.limiter != nil {
		if err := s.limiter.Fail(ctx, key); err != nil {
			logger.From(ctx).WarnContext(ctx, "count failed login failed", "err", err)
		}
	}
	c := clientFrom(ctx)
	s.audit.Record(ctx, audit.Event{
		Type:      audit.EventLoginFailed,
		UserID:    userID,
		Username:  username,
		IPAddress: c.IP,
		UserAgent: c.UserAgent,
	})
}

/* ===================== REGISTER ===================== */

// Register creates an active, non-admin account. With a company code the
// user also gets member access to that company with no module permissions.
func (s *Service) Register(ctx context.Context, in RegisterInput) (appstate.State, error) {
	in.normalize()
	if err := check(in); err != nil {
		return appstate.State{}, err
	}

	var access *users.CompanyAccess
	if in.CompanyCode != "" {
		c, err := s.users.FindCompanyByCode(ctx, in.CompanyCode)
		if errors.Is(err, users.ErrNotFound) || (err == nil && !c.IsActive) {
			return appstate.State{}, apperr.InvalidFields("unknown company code",
				map[string]string{"companyCode": "unknown company code"})
		}
		if err != nil {
			return appstate.State{}, s.internal(ctx, "find company failed", err)
		}
		access = &users.CompanyAccess{
			CompanyID:   c.ID,
			CompanyCode: c.Code,
			CompanyName: c.Name,
			Role:        users.RoleMember,
			IsDefault:   true,
		}
	}

	hash, err := users.HashPassword(in.Password)
	if errors.Is(err, users.ErrPasswordTooLong) {
		return appstate.State{}, apperr.InvalidFields("password must be at most 72 bytes",
			map[string]string{"password": "password must be at most 72 bytes"})
	}
	if err != nil {
		return appstate.State{}, s.internal(ctx, "hash password failed", err)
	}

	now := s.clock().UTC()
	u := users.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u, access); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return appstate.State{}, apperr.Conflict("username or email already registered")
		}
		return appstate.State{}, s.internal(ctx, "create user failed", err)
	}

	st := appstate.State{User: u}
	if access != nil {
		access.UserID = u.ID
		st.Companies = []users.CompanyAccess{*access}
		st.CurrentCompanyID = access.CompanyID
	}
	s.record(ctx, audit.EventRegistered, u.ID, st.CurrentCompanyID)
	return st, nil
}

/* ===================== REFRESH ===================== */

// Refresh exchanges a refresh token for a new pair. Each refresh token is
// accepted once; presenting it again revokes every session of the user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Session{}, apperr.Unauthorized("refresh token required")
	}

	now := s.clock()
	claims, err := s.tokens.Verify(refreshToken, auth.TokenTypeRefresh, now)
	if err != nil {
		logger.From(ctx).DebugContext(ctx, "refresh token rejected", "reason", err.Error())
		return Session{}, apperr.Unauthorized("invalid or expired refresh token")
	}

	if err := auth.CheckSession(ctx, s.sessions, claims); err != nil {
		if errors.Is(err, auth.ErrSessionRevoked) {
			return Session{}, apperr.Unauthorized("session expired, please log in again")
		}
		return Session{}, s.internal(ctx, "session lookup failed", err)
	}

	ttl := time.Second
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Sub(now); left > ttl {
			ttl = left
		}
	}
	fresh, err := s.sessions.ConsumeRefresh(ctx, claims.ID, ttl)
	if err != nil {
		return Session{}, s.internal(ctx, "consume refresh token failed", err)
	}
	if !fresh {
		if _, err := s.sessions.Revoke(ctx, claims.UserID); err != nil {
			logger.From(ctx).ErrorContext(ctx, "revoke after refresh reuse failed", "user_id", claims.UserID, "err", err)
		}
		logger.From(ctx).WarnContext(ctx, "refresh token reused", "user_id", claims.UserID, "jti", claims.ID)
		return Session{}, apperr.Unauthorized("refresh token already used, please log in again")
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, users.ErrNotFound) {
		return Session{}, apperr.Unauthorized("account not found")
	}
	if err != nil {
		return Session{}, s.internal(ctx, "find user failed", err)
	}
	if !u.IsActive {
		return Session{}, apperr.Unauthorized("account is disabled")
	}

	list, err := s.users.ListAccess(ctx, u.ID)
	if err != nil {
		return Session{}, s.internal(ctx, "list company access failed", err)
	}
	current := claims.CompanyID
	if _, ok := users.PickAccess(list, current); !ok && !u.IsSuperAdmin {
		current = ""
		if a, ok := users.PickAccess(list, ""); ok {
			current = a.CompanyID
		}
	}

	sess, err := s.mintAt(ctx, now, u, list, current)
	if err != nil {
		return Session{}, err
	}
	s.record(ctx, audit.EventTokenRefreshed, u.ID, current)
	return sess, nil
}

/* ===================== LOGOUT ===================== */

// Logout revokes every token issued to userID so far. Calling it again, or
// for an unknown user, succeeds.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if _, err := s.sessions.Revoke(ctx, userID); err != nil {
		return s.internal(ctx, "revoke session failed", err)
	}
	s.record(ctx, audit.EventLogout, userID, "")
	return nil
}

/* ===================== COMPANY ===================== */

// SwitchCompany mints a new pair acting in companyID.
func (s *Service) SwitchCompany(ctx context.Context, id auth.Identity, companyID string) (Session, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return Session{}, apperr.InvalidFields("companyId is required",
			map[string]string{"companyId": "companyId is required"})
	}

	u, list, err := s.load(ctx, id.UserID)
	if err != nil {
		return Session{}, err
	}

	if _, ok := users.PickAccess(list, companyID); !ok {
		if !u.IsSuperAdmin {
			return Session{}, apperr.Forbidden("no access to company")
		}
		c, err := s.users.FindCompanyByID(ctx, companyID)
		if errors.Is(err, users.ErrNotFound) || (err == nil && !c.IsActive) {
			return Session{}, apperr.NotFound("company not found")
		}
		if err != nil {
			return Session{}, s.internal(ctx, "find company failed", err)
		}
	}

	sess, err := s.mint(ctx, u, list, companyID)
	if err != nil {
		return Session{}, err
	}
	s.record(ctx, audit.EventCompanySwitched, u.ID, companyID)
	return sess, nil
}

// Profile returns the caller's application state.
func (s *Service) Profile(ctx context.Context, id auth.Identity) (appstate.State, error) {
	st, err := appstate.Build(ctx, s.users, id)
	if errors.Is(err, appstate.ErrUnknownUser) {
		return appstate.State{}, apperr.Unauthorized("account not found")
	}
	if err != nil {
		return appstate.State{}, s.internal(ctx, "load profile failed", err)
	}
	return st, nil
}

/* ===================== INTERNAL ===================== */

func (s *Service) load(ctx context.Context, userID string) (users.User, []users.CompanyAccess, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return users.User{}, nil, apperr.Unauthorized("account not found")
	}
	if err != nil {
		return users.User{}, nil, s.internal(ctx, "find user failed", err)
	}
	if !u.IsActive {
		return users.User{}, nil, apperr.Unauthorized("account is disabled")
	}
	list, err := s.users.ListAccess(ctx, u.ID)
	if err != nil {
		return users.User{}, nil, s.internal(ctx, "list company access failed", err)
	}
	return u, list, nil
}

func (s *Service) mint(ctx context.Context, u users.User, list []users.CompanyAccess, companyID string) (Session, error) {
	return s.mintAt(ctx, s.clock(), u, list, companyID)
}

func (s *Service) mintAt(ctx context.Context, now time.Time, u users.User, list []users.CompanyAccess, companyID string) (Session, error) {
	sv, err := s.sessions.Version(ctx, u.ID)
	if err != nil {
		return Session{}, s.internal(ctx, "session lookup failed", err)
	}

	id := auth.Identity{
		UserID:       u.ID,
		Username:     u.Username,
		Email:        u.Email,
		IsSuperAdmin: u.IsSuperAdmin,
		CompanyID:    companyID,
	}
	if a, ok := users.PickAccess(list, companyID); ok && companyID != "" {
		id.Role = a.Role
	}

	pair, err := s.tokens.IssuePair(now, id, sv)
	if err != nil {
		return Session{}, s.internal(ctx, "issue tokens failed", err)
	}
	return Session{
		Tokens: pair,
		Profile: appstate.State{
			User:             u,
			Companies:        list,
			CurrentCompanyID: companyID,
		},
	}, nil
}

func (s *Service) record(ctx context.Context, t audit.EventType, userID, companyID string) {
	c := clientFrom(ctx)
	s.audit.Record(ctx, audit.Event{
		Type:      t,
		UserID:    userID,
		CompanyID: companyID,
		IPAddress: c.IP,
		UserAgent: c.UserAgent,
	})
}

// internal logs err with the request logger and hides it behind a generic error.
func (s *Service) internal(ctx context.Context, msg string, err error) error {
	logger.From(ctx).ErrorContext(ctx, msg, "err", err)
	return apperr.Internal(err)
}
