package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RideCategory identifies a bookable ride class.
type RideCategory string

const (
	RideCategoryStandard RideCategory = "standard"
	RideCategoryPremium  RideCategory = "premium"
)

// GeofenceType classifies a geofence entry in the ride policy.
type GeofenceType string

const (
	GeofenceCity       GeofenceType = "city"
	GeofenceOfficeZone GeofenceType = "office_zone"
	GeofenceAirport    GeofenceType = "airport"
)

// RideCategories holds the per-category enablement flags.
type RideCategories struct {
	Standard bool `json:"standard"`
	Premium  bool `json:"premium"`
}

// Geofence is a named area rides must start and end inside when any are configured.
type Geofence struct {
	Type GeofenceType `json:"type"`
	Name string       `json:"name"`
}

// TimeWindow restricts rides to a weekday set and an HH:MM range.
// Empty Days means every day; empty Start/End means any time.
type TimeWindow struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Days  []string `json:"days"`
}

// PurposeRule controls whether riders must supply a trip purpose.
type PurposeRule struct {
	Required    bool     `json:"required"`
	AllowedTags []string `json:"allowed_tags"`
}

// RidePolicy is the rides section of a policy document.
type RidePolicy struct {
	Categories RideCategories `json:"categories"`
	Geofences  []Geofence     `json:"geofences"`
	Time       TimeWindow     `json:"time"`
	Purpose    PurposeRule    `json:"purpose"`
}

// AttachmentRule requires receipts on purchases at or above Threshold.
type AttachmentRule struct {
	Required  bool            `json:"required"`
	Threshold decimal.Decimal `json:"threshold"`
}

// PurchasePolicy is the purchases section of a policy document.
type PurchasePolicy struct {
	Modules        map[string]bool `json:"modules"`
	Marketplaces   map[string]bool `json:"marketplaces"`
	VendorsAllow   []string        `json:"vendors_allow"`
	VendorsDeny    []string        `json:"vendors_deny"`
	CategoriesDeny []string        `json:"categories_deny"`
	MaxBasket      decimal.Decimal `json:"max_basket"`
	Attachments    AttachmentRule  `json:"attachments"`
}

// PolicyDocument is a fully specified policy. The organization document is always
// complete; group and user scopes express changes through PolicyOverride.
type PolicyDocument struct {
	Rides     RidePolicy     `json:"rides"`
	Purchases PurchasePolicy `json:"purchases"`
}

// RideOverride carries the ride fields a scope chooses to replace. A nil field
// inherits from the parent scope; a non-nil field replaces the parent value
// wholesale, including empty slices and false flags.
type RideOverride struct {
	Categories *RideCategories `json:"categories,omitempty"`
	Geofences  *[]Geofence     `json:"geofences,omitempty"`
	Time       *TimeWindow     `json:"time,omitempty"`
	Purpose    *PurposeRule    `json:"purpose,omitempty"`
}

// PurchaseOverride carries the purchase fields a scope chooses to replace.
type PurchaseOverride struct {
	Modules        *map[string]bool `json:"modules,omitempty"`
	Marketplaces   *map[string]bool `json:"marketplaces,omitempty"`
	VendorsAllow   *[]string        `json:"vendors_allow,omitempty"`
	VendorsDeny    *[]string        `json:"vendors_deny,omitempty"`
	CategoriesDeny *[]string        `json:"categories_deny,omitempty"`
	MaxBasket      *decimal.Decimal `json:"max_basket,omitempty"`
	Attachments    *AttachmentRule  `json:"attachments,omitempty"`
}

// PolicyOverride is a sparse policy for the group or user scope.
type PolicyOverride struct {
	Rides     RideOverride     `json:"rides"`
	Purchases PurchaseOverride `json:"purchases"`
}

// IsEmpty reports whether the override replaces no fields at all.
func (o *PolicyOverride) IsEmpty() bool {
	r, p := o.Rides, o.Purchases
	return r.Categories == nil && r.Geofences == nil && r.Time == nil && r.Purpose == nil &&
		p.Modules == nil && p.Marketplaces == nil && p.VendorsAllow == nil &&
		p.VendorsDeny == nil && p.CategoriesDeny == nil && p.MaxBasket == nil &&
		p.Attachments == nil
}

// OverrideScope identifies which subject kind an override record is attached to.
type OverrideScope string

const (
	OverrideScopeGroup OverrideScope = "group"
	OverrideScopeUser  OverrideScope = "user"
)

// OrgPolicy is the persisted organization-level policy document.
type OrgPolicy struct {
	OrgID     uuid.UUID      `json:"org_id" db:"org_id"`
	Document  PolicyDocument `json:"document" db:"document"`
	UpdatedBy uuid.UUID      `json:"updated_by" db:"updated_by"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// PolicyOverrideRecord is a persisted group- or user-scope override.
type PolicyOverrideRecord struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	OrgID     uuid.UUID      `json:"org_id" db:"org_id"`
	Scope     OverrideScope  `json:"scope" db:"scope"`
	SubjectID uuid.UUID      `json:"subject_id" db:"subject_id"`
	Override  PolicyOverride `json:"override" db:"override"`
	UpdatedBy uuid.UUID      `json:"updated_by" db:"updated_by"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// NewPolicyOverrideRecord creates an override record for a group or user subject.
func NewPolicyOverrideRecord(orgID uuid.UUID, scope OverrideScope, subjectID uuid.UUID, override PolicyOverride, updatedBy uuid.UUID) *PolicyOverrideRecord {
	now := time.Now()
	return &PolicyOverrideRecord{
		ID:        uuid.New(),
		OrgID:     orgID,
		Scope:     scope,
		SubjectID: subjectID,
		Override:  override,
		UpdatedBy: updatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
