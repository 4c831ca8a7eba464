// Package rbac holds the server-side route guards. Each guard reads the
// request's appstate.State, so appstate.Loader must run first.
package rbac

import (
	"net/http"

	"factory-erp/internal/appstate"
	"factory-erp/internal/permission"
	"factory-erp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequireCompany enforces the multi-tenant invariant: a non-admin caller
// must be acting in a company they hold access to.
func RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := appstate.From(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if appstate.IsSuperAdmin(s) {
			c.Next()
			return
		}
		if _, ok := appstate.CurrentCompany(s); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "company required"})
			return
		}
		c.Next()
	}
}

// RequirePermission allows the request when the caller may perform action
// on module in the current company. Super-admins always pass.
func RequirePermission(module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := appstate.From(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !appstate.Can(s, module, action) {
			logger.FromGin(c).Info("permission denied",
				"user_id", s.User.ID,
				"company_id", s.CurrentCompanyID,
				"module", module,
				"action", action,
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":  "forbidden",
				"module": module,
				"action": action,
			})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows the request when the caller's role in the current
// company is one of allowed. Super-admins always pass.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		s, ok := appstate.From(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if appstate.IsSuperAdmin(s) {
			c.Next()
			return
		}
		a, ok := appstate.CurrentCompany(s)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "company required"})
			return
		}
		if _, ok := allowedSet[a.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := appstate.From(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !appstate.IsSuperAdmin(s) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// Principal is a convenience for handlers that branch on permissions.
func Principal(c *gin.Context) permission.Principal {
	return appstate.Principal(appstate.FromGin(c))
}
