package models

import (
	"time"

	"github.com/google/uuid"
)

// ConsoleModule is a product module an organization can switch on or off.
type ConsoleModule string

const (
	ModuleRides     ConsoleModule = "rides"
	ModulePurchases ConsoleModule = "purchases"
	ModuleECommerce ConsoleModule = "e_commerce"
	ModuleServices  ConsoleModule = "services"
	ModuleApprovals ConsoleModule = "approvals"
	ModuleReports   ConsoleModule = "reports"
)

// ModuleCatalog lists every known module in display order.
var ModuleCatalog = []ConsoleModule{
	ModuleRides,
	ModulePurchases,
	ModuleECommerce,
	ModuleServices,
	ModuleApprovals,
	ModuleReports,
}

// KnownModule reports whether m is part of the catalog.
func KnownModule(m ConsoleModule) bool {
	for _, known := range ModuleCatalog {
		if m == known {
			return true
		}
	}
	return false
}

// ModuleSetting is the per-organization enablement state of one module.
type ModuleSetting struct {
	OrgID     uuid.UUID     `json:"org_id" db:"org_id"`
	Module    ConsoleModule `json:"module" db:"module"`
	Enabled   bool          `json:"enabled" db:"enabled"`
	UpdatedBy uuid.UUID     `json:"updated_by" db:"updated_by"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}
