// Package permission decides whether a principal may perform an action on an
// ERP module. Decisions are pure and synchronous.
package permission

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Actions understood by the ERP modules.
const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionApprove = "approve"
	ActionExport  = "export"
)

// Module keys. Keep these stable; they are stored in company access records.
const (
	ModuleInventory      = "inventory"
	ModulePurchaseOrders = "purchase_orders"
	ModuleQuotations     = "quotations"
	ModuleVehicles       = "vehicles"
	ModuleHospitality    = "hospitality"
	ModuleCompanies      = "companies"
	ModuleUsers          = "users"
	ModuleRoles          = "roles"
)

// Map is a user's per-company permission record: module -> Grant.
type Map map[string]Grant

// Allowed is the single authorization decision used by route guards and gates.
//
// Super-admins are always allowed. Otherwise the module must be present in m
// and its grant must allow action. A nil map denies.
func Allowed(isSuperAdmin bool, m Map, module, action string) bool {
	if isSuperAdmin {
		return true
	}
	g, ok := m[module]
	if !ok {
		return false
	}
	return g.Allows(action)
}

// Principal is the minimum a caller needs to answer permission questions.
type Principal struct {
	IsSuperAdmin bool
	Permissions  Map
}

func (p Principal) Can(module, action string) bool {
	return Allowed(p.IsSuperAdmin, p.Permissions, module, action)
}

// Scan reads a JSON/JSONB column.
func (m *Map) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("permission: cannot scan %T into Map", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	out := Map{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("permission: decode map: %w", err)
	}
	*m = out
	return nil
}

// Value writes the map as JSON.
func (m Map) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("permission: encode map: %w", err)
	}
	return b, nil
}
