package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant root for the admin console.
type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"` // URL-friendly identifier
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewOrganization creates an Organization with a fresh ID and timestamps.
func NewOrganization(name, slug string) *Organization {
	now := time.Now()
	return &Organization{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Group is an organizational subdivision (department, team). A group may be
// linked to a default cost center for chargeback allocation.
type Group struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	OrgID        uuid.UUID  `json:"org_id" db:"org_id"`
	Name         string     `json:"name" db:"name"`
	CostCenterID *uuid.UUID `json:"cost_center_id,omitempty" db:"cost_center_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// NewGroup creates a Group within an organization.
func NewGroup(orgID uuid.UUID, name string) *Group {
	now := time.Now()
	return &Group{
		ID:        uuid.New(),
		OrgID:     orgID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
