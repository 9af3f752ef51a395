package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction names a mutating console operation for the governance trail.
type AuditAction string

const (
	AuditActionPolicyUpdated     AuditAction = "policy.updated"
	AuditActionOverrideUpserted  AuditAction = "policy.override_upserted"
	AuditActionOverrideDeleted   AuditAction = "policy.override_deleted"
	AuditActionGroupCreated      AuditAction = "group.created"
	AuditActionGroupUpdated      AuditAction = "group.updated"
	AuditActionGroupDeleted      AuditAction = "group.deleted"
	AuditActionCostCenterCreated AuditAction = "cost_center.created"
	AuditActionCostCenterDeleted AuditAction = "cost_center.deleted"
	AuditActionRuleCreated       AuditAction = "chargeback_rule.created"
	AuditActionRuleUpdated       AuditAction = "chargeback_rule.updated"
	AuditActionRuleDeleted       AuditAction = "chargeback_rule.deleted"
	AuditActionModuleToggled     AuditAction = "module.toggled"
	AuditActionRoleChanged       AuditAction = "user.role_changed"
	AuditActionInviteCreated     AuditAction = "invite.created"
	AuditActionInviteAccepted    AuditAction = "invite.accepted"
	AuditActionInviteRevoked     AuditAction = "invite.revoked"
	AuditActionAPIKeyCreated     AuditAction = "api_key.created"
	AuditActionAPIKeyRevoked     AuditAction = "api_key.revoked"
)

// AuditLog is one entry in the governance trail.
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrgID        uuid.UUID       `json:"org_id" db:"org_id"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty" db:"actor_id"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"`
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	RequestID    string          `json:"request_id" db:"request_id"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// NewAuditLog creates an entry stamped with the current time.
func NewAuditLog(orgID uuid.UUID, actorID *uuid.UUID, action AuditAction, resourceType string, resourceID *uuid.UUID) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		OrgID:        orgID,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		CreatedAt:    time.Now(),
	}
}
