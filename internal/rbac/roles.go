package rbac

import "factory-erp/internal/users"

// Company role names. Keep these stable; they are stored in company access
// records. Roles label a user's position; module access is decided by the
// permission map, not the role.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleClerk   = "clerk"
	RoleViewer  = "viewer"
	RoleMember  = users.RoleMember
)
