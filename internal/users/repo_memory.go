package users

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory Repository useful for tests and local development.
// It is not intended for production use.
type MemoryRepo struct {
	mu        sync.Mutex
	users     map[string]User
	companies map[string]Company
	access    map[string][]CompanyAccess
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:     map[string]User{},
		companies: map[string]Company{},
		access:    map[string][]CompanyAccess{},
	}
}

// AddCompany seeds a tenant.
func (r *MemoryRepo) AddCompany(c Company) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[c.ID] = c
}

// Grant seeds an access record; company code and name are filled from the company.
func (r *MemoryRepo) Grant(a CompanyAccess) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.companies[a.CompanyID]; ok {
		a.CompanyCode = c.Code
		a.CompanyName = c.Name
	}
	r.access[a.UserID] = append(r.access[a.UserID], a)
}

func (r *MemoryRepo) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) FindByID(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) FindCompanyByCode(_ context.Context, code string) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return Company{}, ErrNotFound
}

func (r *MemoryRepo) FindCompanyByID(_ context.Context, id string) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ListAccess(_ context.Context, userID string) ([]CompanyAccess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CompanyAccess
	for _, a := range r.access[userID] {
		if c, ok := r.companies[a.CompanyID]; ok && !c.IsActive {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *MemoryRepo) Create(_ context.Context, u User, access *CompanyAccess) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	r.users[u.ID] = u
	if access != nil {
		a := *access
		a.UserID = u.ID
		if c, ok := r.companies[a.CompanyID]; ok {
			a.CompanyCode = c.Code
			a.CompanyName = c.Name
		}
		r.access[u.ID] = append(r.access[u.ID], a)
	}
	return nil
}
