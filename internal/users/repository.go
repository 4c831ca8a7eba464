package users

import "context"

// Repository is the persistence contract for accounts and tenant access.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindCompanyByCode(ctx context.Context, code string) (Company, error)
	FindCompanyByID(ctx context.Context, id string) (Company, error)
	ListAccess(ctx context.Context, userID string) ([]CompanyAccess, error)
	// Create inserts u and, when access is non-nil, its first company access record,
	// atomically. Returns ErrDuplicate on username/email collision.
	Create(ctx context.Context, u User, access *CompanyAccess) error
}
