package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
)

// PolicyRepository implements the repositories.PolicyRepository interface.
// Policy documents and overrides are stored as JSONB and (un)marshalled here,
// so callers only ever see the typed models.
type PolicyRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *DB, logger *zap.Logger) repositories.PolicyRepository {
	return &PolicyRepository{db: db, logger: logger}
}

// GetOrgPolicy retrieves the organization policy document
func (r *PolicyRepository) GetOrgPolicy(ctx context.Context, orgID uuid.UUID) (*models.OrgPolicy, error) {
	query := `
		SELECT org_id, document, updated_by, created_at, updated_at
		FROM org_policies
		WHERE org_id = $1
	`

	policy := &models.OrgPolicy{}
	var raw []byte

	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, orgID).Scan(
		&policy.OrgID, &raw, &policy.UpdatedBy, &policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("org policy not found: %s", orgID)
		}
		return nil, fmt.Errorf("failed to get org policy: %w", err)
	}

	if err := json.Unmarshal(raw, &policy.Document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy document: %w", err)
	}

	return policy, nil
}

// UpsertOrgPolicy creates or replaces the organization policy document
func (r *PolicyRepository) UpsertOrgPolicy(ctx context.Context, policy *models.OrgPolicy) error {
	raw, err := json.Marshal(policy.Document)
	if err != nil {
		return fmt.Errorf("failed to marshal policy document: %w", err)
	}

	query := `
		INSERT INTO org_policies (org_id, document, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (org_id) DO UPDATE
		SET document = EXCLUDED.document,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = EXCLUDED.updated_at
	`

	executor := GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, query,
		policy.OrgID, raw, policy.UpdatedBy, policy.CreatedAt, policy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert org policy: %w", err)
	}

	r.logger.Debug("org policy upserted", zap.String("org_id", policy.OrgID.String()))
	return nil
}

// GetOverride retrieves the override for a group or user subject. A subject
// with no override yields (nil, nil).
func (r *PolicyRepository) GetOverride(ctx context.Context, scope models.OverrideScope, subjectID uuid.UUID) (*models.PolicyOverrideRecord, error) {
	query := `
		SELECT id, org_id, scope, subject_id, override, updated_by, created_at, updated_at
		FROM policy_overrides
		WHERE scope = $1 AND subject_id = $2
	`

	record := &models.PolicyOverrideRecord{}
	var raw []byte

	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, scope, subjectID).Scan(
		&record.ID, &record.OrgID, &record.Scope, &record.SubjectID,
		&raw, &record.UpdatedBy, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get policy override: %w", err)
	}

	if err := json.Unmarshal(raw, &record.Override); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy override: %w", err)
	}

	return record, nil
}

// UpsertOverride creates or replaces a subject's override
func (r *PolicyRepository) UpsertOverride(ctx context.Context, record *models.PolicyOverrideRecord) error {
	raw, err := json.Marshal(record.Override)
	if err != nil {
		return fmt.Errorf("failed to marshal policy override: %w", err)
	}

	query := `
		INSERT INTO policy_overrides (id, org_id, scope, subject_id, override, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (scope, subject_id) DO UPDATE
		SET override = EXCLUDED.override,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = EXCLUDED.updated_at
	`

	executor := GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, query,
		record.ID, record.OrgID, record.Scope, record.SubjectID,
		raw, record.UpdatedBy, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert policy override: %w", err)
	}

	r.logger.Debug("policy override upserted",
		zap.String("scope", string(record.Scope)),
		zap.String("subject_id", record.SubjectID.String()))
	return nil
}

// DeleteOverride removes a subject's override. Deleting an override that does
// not exist is a no-op.
func (r *PolicyRepository) DeleteOverride(ctx context.Context, scope models.OverrideScope, subjectID uuid.UUID) error {
	query := `DELETE FROM policy_overrides WHERE scope = $1 AND subject_id = $2`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, scope, subjectID); err != nil {
		return fmt.Errorf("failed to delete policy override: %w", err)
	}

	r.logger.Debug("policy override deleted",
		zap.String("scope", string(scope)),
		zap.String("subject_id", subjectID.String()))
	return nil
}
