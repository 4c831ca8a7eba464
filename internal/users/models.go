package users

import (
	"errors"
	"time"

	"factory-erp/internal/permission"
)

// User is an account that can sign in.
// PasswordHash is a bcrypt hash and must never be serialized to clients.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"fullName" db:"full_name"`
	IsSuperAdmin bool      `json:"isSuperAdmin" db:"is_super_admin"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Company is a tenant.
type Company struct {
	ID       string `json:"id" db:"id"`
	Code     string `json:"code" db:"code"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"isActive" db:"is_active"`
}

// CompanyAccess is a user's tenant-scoped role and permission map.
// Multi-tenant invariant: permissions are only ever evaluated for the
// company the caller is currently acting in.
type CompanyAccess struct {
	UserID      string         `json:"userId" db:"user_id"`
	CompanyID   string         `json:"companyId" db:"company_id"`
	CompanyCode string         `json:"companyCode" db:"code"`
	CompanyName string         `json:"companyName" db:"name"`
	Role        string         `json:"role" db:"role"`
	Permissions permission.Map `json:"permissions" db:"permissions"`
	IsDefault   bool           `json:"isDefault" db:"is_default"`
}

const RoleMember = "member"

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("username or email already exists")
)

// PickAccess returns the access record for companyID, or the default record
// when companyID is empty. The first record wins when none is marked default.
func PickAccess(list []CompanyAccess, companyID string) (CompanyAccess, bool) {
	if len(list) == 0 {
		return CompanyAccess{}, false
	}
	if companyID != "" {
		for _, a := range list {
			if a.CompanyID == companyID {
				return a, true
			}
		}
		return CompanyAccess{}, false
	}
	for _, a := range list {
		if a.IsDefault {
			return a, true
		}
	}
	return list[0], true
}
