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

// ChargebackRuleRepository implements the repositories.ChargebackRuleRepository
// interface. Splits are stored as JSONB.
type ChargebackRuleRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewChargebackRuleRepository creates a new chargeback rule repository
func NewChargebackRuleRepository(db *DB, logger *zap.Logger) repositories.ChargebackRuleRepository {
	return &ChargebackRuleRepository{db: db, logger: logger}
}

// Create creates a new chargeback rule
func (r *ChargebackRuleRepository) Create(ctx context.Context, rule *models.ChargebackRule) error {
	raw, err := json.Marshal(rule.Splits)
	if err != nil {
		return fmt.Errorf("failed to marshal splits: %w", err)
	}

	query := `
		INSERT INTO chargeback_rules (id, org_id, priority, match_type, match_key, splits, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, query,
		rule.ID, rule.OrgID, rule.Priority, rule.MatchType, rule.MatchKey,
		raw, rule.Enabled, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chargeback rule: %w", err)
	}

	r.logger.Debug("chargeback rule created", zap.String("id", rule.ID.String()))
	return nil
}

// GetByID retrieves a chargeback rule by ID
func (r *ChargebackRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChargebackRule, error) {
	query := `
		SELECT id, org_id, priority, match_type, match_key, splits, enabled, created_at, updated_at
		FROM chargeback_rules
		WHERE id = $1
	`

	rule := &models.ChargebackRule{}
	var raw []byte

	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&rule.ID, &rule.OrgID, &rule.Priority, &rule.MatchType, &rule.MatchKey,
		&raw, &rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("chargeback rule not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get chargeback rule: %w", err)
	}

	if err := json.Unmarshal(raw, &rule.Splits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal splits: %w", err)
	}

	return rule, nil
}

// GetByOrgID retrieves the organization's rules in matching order: priority
// number ascending, creation time ascending for ties.
func (r *ChargebackRuleRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.ChargebackRule, error) {
	query := `
		SELECT id, org_id, priority, match_type, match_key, splits, enabled, created_at, updated_at
		FROM chargeback_rules
		WHERE org_id = $1
		ORDER BY priority ASC, created_at ASC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chargeback rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.ChargebackRule
	for rows.Next() {
		rule := &models.ChargebackRule{}
		var raw []byte
		if err := rows.Scan(&rule.ID, &rule.OrgID, &rule.Priority, &rule.MatchType,
			&rule.MatchKey, &raw, &rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chargeback rule: %w", err)
		}
		if err := json.Unmarshal(raw, &rule.Splits); err != nil {
			return nil, fmt.Errorf("failed to unmarshal splits: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chargeback rule rows: %w", err)
	}

	return rules, nil
}

// Update updates a chargeback rule
func (r *ChargebackRuleRepository) Update(ctx context.Context, rule *models.ChargebackRule) error {
	raw, err := json.Marshal(rule.Splits)
	if err != nil {
		return fmt.Errorf("failed to marshal splits: %w", err)
	}

	query := `
		UPDATE chargeback_rules
		SET priority = $2, match_type = $3, match_key = $4, splits = $5, enabled = $6, updated_at = $7
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		rule.ID, rule.Priority, rule.MatchType, rule.MatchKey, raw, rule.Enabled, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update chargeback rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("chargeback rule not found: %s", rule.ID)
	}

	r.logger.Debug("chargeback rule updated", zap.String("id", rule.ID.String()))
	return nil
}

// Delete deletes a chargeback rule
func (r *ChargebackRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM chargeback_rules WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete chargeback rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("chargeback rule not found: %s", id)
	}

	r.logger.Debug("chargeback rule deleted", zap.String("id", id.String()))
	return nil
}
