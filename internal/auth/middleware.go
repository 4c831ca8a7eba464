package auth

import (
	"errors"
	"net/http"
	"time"

	"factory-erp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequireAccessToken verifies an access token (bearer header first, then the
// accessToken cookie), checks it against the user's session version and injects
// the claims into the request context.
// It does not perform permission checks; those belong to internal/rbac.
func RequireAccessToken(m *Manager, sessions SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := ExtractToken(c.Request, DefaultAccessExtractors...)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}

		claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
		if err != nil {
			logger.FromGin(c).Debug("access token rejected", "reason", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if err := CheckSession(c.Request.Context(), sessions, claims); err != nil {
			if errors.Is(err, ErrSessionRevoked) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
			logger.FromGin(c).Error("session lookup failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))

		// Read back by the request logger.
		c.Set(logger.KeyUserID, claims.UserID)
		c.Set(logger.KeyCompanyID, claims.CompanyID)

		c.Next()
	}
}
