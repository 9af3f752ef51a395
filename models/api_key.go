package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a developer-center credential. Only the SHA-256 hash is stored;
// the raw key is shown once at creation. Prefix is kept for display ("cp_ab12…").
type APIKey struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	OrgID      uuid.UUID  `json:"org_id" db:"org_id"`
	Name       string     `json:"name" db:"name"`
	KeyHash    string     `json:"-" db:"key_hash"`
	Prefix     string     `json:"prefix" db:"prefix"`
	CreatedBy  uuid.UUID  `json:"created_by" db:"created_by"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// NewAPIKey creates an active APIKey record.
func NewAPIKey(orgID uuid.UUID, name, keyHash, prefix string, createdBy uuid.UUID) *APIKey {
	return &APIKey{
		ID:        uuid.New(),
		OrgID:     orgID,
		Name:      name,
		KeyHash:   keyHash,
		Prefix:    prefix,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
}

// IsRevoked reports whether the key has been revoked.
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}
