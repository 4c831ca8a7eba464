// Package appstate holds the per-request view of who the caller is and
// what they can do in their current company. Selectors are pure functions
// over State.
package appstate

import (
	"context"

	"factory-erp/internal/permission"
	"factory-erp/internal/users"
)

// State is the application state served to clients by /auth/me and consumed
// by route guards and gates.
type State struct {
	User             users.User            `json:"user"`
	Companies        []users.CompanyAccess `json:"companies"`
	CurrentCompanyID string                `json:"currentCompanyId,omitempty"`
}

type ctxKey struct{}

func With(ctx context.Context, s State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From returns the state stored in ctx. A missing state is the zero State,
// which denies every permission.
func From(ctx context.Context) (State, bool) {
	s, ok := ctx.Value(ctxKey{}).(State)
	return s, ok
}

func IsSuperAdmin(s State) bool { return s.User.IsSuperAdmin }

// CurrentCompany returns the access record for the current company.
func CurrentCompany(s State) (users.CompanyAccess, bool) {
	if s.CurrentCompanyID == "" {
		return users.CompanyAccess{}, false
	}
	return users.PickAccess(s.Companies, s.CurrentCompanyID)
}

// CurrentPermissions is nil when no company is current.
func CurrentPermissions(s State) permission.Map {
	a, ok := CurrentCompany(s)
	if !ok {
		return nil
	}
	return a.Permissions
}

func Principal(s State) permission.Principal {
	return permission.Principal{
		IsSuperAdmin: IsSuperAdmin(s),
		Permissions:  CurrentPermissions(s),
	}
}

func Can(s State, module, action string) bool {
	return permission.Allowed(IsSuperAdmin(s), CurrentPermissions(s), module, action)
}
