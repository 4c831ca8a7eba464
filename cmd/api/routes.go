package main

import (
	"net/http"

	"factory-erp/internal/appstate"
	"factory-erp/internal/auth"
	"factory-erp/internal/gate"
	"factory-erp/internal/httpapi"
	"factory-erp/internal/permission"
	"factory-erp/internal/rbac"
	"factory-erp/internal/users"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	handlers httpapi.Handlers
	tokens   *auth.Manager
	sessions auth.SessionStore
	users    users.Repository
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	h := d.handlers
	authMW := auth.RequireAccessToken(d.tokens, d.sessions)
	loadState := appstate.Loader(d.users)

	r.GET("/healthz", h.Health)

	// AUTH routes. Logout identifies the caller itself so that expired or revoked sessions can still log out.
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		authGroup.POST("/refresh-token", h.RefreshToken)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", authMW, h.Me)
		authGroup.POST("/switch-company", authMW, h.SwitchCompany)
	}

	// ERP module APIs. Permissions are evaluated in the caller's current company.
	v1 := r.Group("/api/v1")
	v1.Use(authMW, loadState)
	{
		admin := v1.Group("/admin", rbac.RequireSuperAdmin())
		admin.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		for _, m := range httpapi.Modules {
			g := v1.Group("/"+m, rbac.RequireCompany())
			g.GET("", rbac.RequirePermission(m, permission.ActionView), httpapi.ModuleAccess(m))
		}

		roles := v1.Group("/roles/assignable", rbac.RequireCompany(), rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleManager))
		roles.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"roles": []string{rbac.RoleAdmin, rbac.RoleManager, rbac.RoleClerk, rbac.RoleViewer, rbac.RoleMember}})
		})
	}

	// Page shells. Denied pages render the access restricted placeholder.
	app := r.Group("/app")
	app.Use(authMW, loadState)
	{
		for _, m := range httpapi.Modules {
			app.GET("/"+m, gate.Page(m), httpapi.ModulePage(m))
		}
	}
}
