package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a governance role within an organization.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleApprover Role = "approver"
	RoleMember   Role = "member"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleApprover, RoleMember:
		return true
	}
	return false
}

// CanManagePolicies reports whether the role may edit policies, rules and settings.
func (r Role) CanManagePolicies() bool {
	return r == RoleOwner || r == RoleAdmin
}

// UserStatus tracks the account lifecycle.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is a member of an organization.
type User struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	OrgID     uuid.UUID  `json:"org_id" db:"org_id"`
	GroupID   *uuid.UUID `json:"group_id,omitempty" db:"group_id"`
	Email     string     `json:"email" db:"email"`
	Name      string     `json:"name" db:"name"`
	Role      Role       `json:"role" db:"role"`
	Status    UserStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// NewUser creates an active User in the given organization.
func NewUser(orgID uuid.UUID, email, name string, role Role) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		OrgID:     orgID,
		Email:     email,
		Name:      name,
		Role:      role,
		Status:    UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
