package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
)

// CostCenterRepository implements the repositories.CostCenterRepository interface
type CostCenterRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCostCenterRepository creates a new cost center repository
func NewCostCenterRepository(db *DB, logger *zap.Logger) repositories.CostCenterRepository {
	return &CostCenterRepository{db: db, logger: logger}
}

// Create creates a new cost center
func (r *CostCenterRepository) Create(ctx context.Context, cc *models.CostCenter) error {
	query := `
		INSERT INTO cost_centers (id, org_id, code, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		cc.ID, cc.OrgID, cc.Code, cc.Name, cc.CreatedAt, cc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create cost center: %w", err)
	}

	r.logger.Debug("cost center created", zap.String("id", cc.ID.String()))
	return nil
}

// GetByID retrieves a cost center by ID
func (r *CostCenterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CostCenter, error) {
	query := `
		SELECT id, org_id, code, name, created_at, updated_at
		FROM cost_centers
		WHERE id = $1
	`

	cc := &models.CostCenter{}
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&cc.ID, &cc.OrgID, &cc.Code, &cc.Name, &cc.CreatedAt, &cc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("cost center not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get cost center: %w", err)
	}

	return cc, nil
}

// GetByOrgID retrieves all cost centers for an organization
func (r *CostCenterRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.CostCenter, error) {
	query := `
		SELECT id, org_id, code, name, created_at, updated_at
		FROM cost_centers
		WHERE org_id = $1
		ORDER BY code ASC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost centers: %w", err)
	}
	defer rows.Close()

	var centers []*models.CostCenter
	for rows.Next() {
		cc := &models.CostCenter{}
		if err := rows.Scan(&cc.ID, &cc.OrgID, &cc.Code, &cc.Name,
			&cc.CreatedAt, &cc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cost center: %w", err)
		}
		centers = append(centers, cc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cost center rows: %w", err)
	}

	return centers, nil
}

// Delete deletes a cost center
func (r *CostCenterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM cost_centers WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete cost center: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("cost center not found: %s", id)
	}

	r.logger.Debug("cost center deleted", zap.String("id", id.String()))
	return nil
}
