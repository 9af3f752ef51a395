package models

import (
	"time"

	"github.com/google/uuid"
)

// CostCenter is a bookkeeping target chargeback splits allocate spend to.
type CostCenter struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrgID     uuid.UUID `json:"org_id" db:"org_id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewCostCenter creates a CostCenter within an organization.
func NewCostCenter(orgID uuid.UUID, code, name string) *CostCenter {
	now := time.Now()
	return &CostCenter{
		ID:        uuid.New(),
		OrgID:     orgID,
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChargebackMatchType is the tag dimension a chargeback rule matches on.
type ChargebackMatchType string

const (
	ChargebackMatchGroup   ChargebackMatchType = "group"
	ChargebackMatchProject ChargebackMatchType = "project"
	ChargebackMatchPurpose ChargebackMatchType = "purpose"
)

// ChargebackSplit assigns a percentage of a matched amount to a cost center.
type ChargebackSplit struct {
	CostCenterID uuid.UUID `json:"cost_center_id"`
	Percent      int64     `json:"percent"`
}

// ChargebackRule routes tagged spend to cost centers. Lower Priority numbers take
// precedence; splits must sum to exactly 100 percent, enforced at save time.
type ChargebackRule struct {
	ID        uuid.UUID           `json:"id" db:"id"`
	OrgID     uuid.UUID           `json:"org_id" db:"org_id"`
	Priority  int                 `json:"priority" db:"priority"`
	MatchType ChargebackMatchType `json:"match_type" db:"match_type"`
	MatchKey  string              `json:"match_key" db:"match_key"`
	Splits    []ChargebackSplit   `json:"splits" db:"splits"`
	Enabled   bool                `json:"enabled" db:"enabled"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" db:"updated_at"`
}

// NewChargebackRule creates an enabled rule with a fresh ID and timestamps.
func NewChargebackRule(orgID uuid.UUID, priority int, matchType ChargebackMatchType, matchKey string, splits []ChargebackSplit) *ChargebackRule {
	now := time.Now()
	return &ChargebackRule{
		ID:        uuid.New(),
		OrgID:     orgID,
		Priority:  priority,
		MatchType: matchType,
		MatchKey:  matchKey,
		Splits:    splits,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
