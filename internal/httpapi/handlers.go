package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"factory-erp/internal/account"
	"factory-erp/internal/appstate"
	"factory-erp/internal/auth"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse input, call internal services, return JSON.
type Handlers struct {
	Account *account.Service
	Tokens  *auth.Manager

	// SecureCookies marks auth cookies Secure.
	SecureCookies bool

	// Checks are run by Health; any error reports the service unhealthy.
	Checks map[string]func(ctx context.Context) error

	// Now defaults to time.Now.
	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type sessionResponse struct {
	Success               bool           `json:"success"`
	AccessToken           string         `json:"accessToken"`
	RefreshToken          string         `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time      `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time      `json:"refreshTokenExpiresAt"`
	User                  appstate.State `json:"user"`
}

func (h Handlers) writeSession(c *gin.Context, sess account.Session) {
	auth.SetTokenCookies(c.Writer, sess.Tokens, h.now(), h.SecureCookies)
	c.JSON(http.StatusOK, sessionResponse{
		Success:               true,
		AccessToken:           sess.Tokens.AccessToken,
		RefreshToken:          sess.Tokens.RefreshToken,
		AccessTokenExpiresAt:  sess.Tokens.AccessExpiresAt,
		RefreshTokenExpiresAt: sess.Tokens.RefreshExpiresAt,
		User:                  sess.Profile,
	})
}

func clientContext(c *gin.Context) context.Context {
	return account.WithClient(c.Request.Context(), account.Client{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}

// --- Auth ---

func (h Handlers) Login(c *gin.Context) {
	var req account.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	sess, err := h.Account.Login(clientContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.writeSession(c, sess)
}

func (h Handlers) Register(c *gin.Context) {
	var req account.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	st, err := h.Account.Register(clientContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": st})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken takes the token from the JSON body, falling back to the
// refreshToken cookie. Any failure clears both cookies; the client must log in again.
func (h Handlers) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	tok := req.RefreshToken
	if tok == "" {
		tok, _ = auth.ExtractToken(c.Request, auth.Cookie(auth.RefreshCookieName))
	}

	sess, err := h.Account.Refresh(clientContext(c), tok)
	if err != nil {
		auth.ClearTokenCookies(c.Writer, h.SecureCookies)
		writeError(c, err)
		return
	}
	h.writeSession(c, sess)
}

// Logout revokes the caller's session and always clears both cookies. The
// caller is identified by the access token or, once that has expired, by the
// refresh token from the body or cookie. Only signature and expiry are checked,
// so logging out an already revoked session still succeeds.
func (h Handlers) Logout(c *gin.Context) {
	auth.ClearTokenCookies(c.Writer, h.SecureCookies)

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	userID, ok := h.logoutSubject(c.Request, req.RefreshToken)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing or invalid token"})
		return
	}

	if err := h.Account.Logout(clientContext(c), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

func (h Handlers) logoutSubject(r *http.Request, bodyRefresh string) (string, bool) {
	now := h.now()
	if tok, ok := auth.ExtractToken(r, auth.DefaultAccessExtractors...); ok {
		if claims, err := h.Tokens.Verify(tok, auth.TokenTypeAccess, now); err == nil {
			return claims.UserID, true
		}
	}

	tok := bodyRefresh
	if tok == "" {
		tok, _ = auth.ExtractToken(r, auth.Cookie(auth.RefreshCookieName))
	}
	if tok == "" {
		return "", false
	}
	claims, err := h.Tokens.Verify(tok, auth.TokenTypeRefresh, now)
	if err != nil {
		return "", false
	}
	return claims.UserID, true
}

// Me returns the caller's application state. Requires RequireAccessToken.
func (h Handlers) Me(c *gin.Context) {
	id, err := auth.IdentityFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}
	st, err := h.Account.Profile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": st})
}

type switchCompanyRequest struct {
	CompanyID string `json:"companyId"`
}

func (h Handlers) SwitchCompany(c *gin.Context) {
	id, err := auth.IdentityFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}
	var req switchCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	sess, err := h.Account.SwitchCompany(clientContext(c), id, req.CompanyID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.writeSession(c, sess)
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
