package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus tracks the invite lifecycle.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
	InviteStatusExpired  InviteStatus = "expired"
)

// Invite is a pending membership offer. Only the SHA-256 hash of the invite
// token is stored; the raw token is returned once at creation.
type Invite struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	OrgID      uuid.UUID    `json:"org_id" db:"org_id"`
	Email      string       `json:"email" db:"email"`
	Role       Role         `json:"role" db:"role"`
	GroupID    *uuid.UUID   `json:"group_id,omitempty" db:"group_id"`
	TokenHash  string       `json:"-" db:"token_hash"`
	Status     InviteStatus `json:"status" db:"status"`
	InvitedBy  uuid.UUID    `json:"invited_by" db:"invited_by"`
	ExpiresAt  time.Time    `json:"expires_at" db:"expires_at"`
	AcceptedAt *time.Time   `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// NewInvite creates a pending invite expiring after ttl.
func NewInvite(orgID uuid.UUID, email string, role Role, groupID *uuid.UUID, invitedBy uuid.UUID, tokenHash string, ttl time.Duration) *Invite {
	now := time.Now()
	return &Invite{
		ID:        uuid.New(),
		OrgID:     orgID,
		Email:     email,
		Role:      role,
		GroupID:   groupID,
		TokenHash: tokenHash,
		Status:    InviteStatusPending,
		InvitedBy: invitedBy,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsExpired reports whether the invite's deadline has passed.
func (i *Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
