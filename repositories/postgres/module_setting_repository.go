package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
)

// ModuleSettingRepository implements the repositories.ModuleSettingRepository interface
type ModuleSettingRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewModuleSettingRepository creates a new module setting repository
func NewModuleSettingRepository(db *DB, logger *zap.Logger) repositories.ModuleSettingRepository {
	return &ModuleSettingRepository{db: db, logger: logger}
}

// GetByOrgID retrieves all module settings for an organization. Modules with
// no row yet simply have no setting; the service layer fills in defaults.
func (r *ModuleSettingRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.ModuleSetting, error) {
	query := `
		SELECT org_id, module, enabled, updated_by, updated_at
		FROM module_settings
		WHERE org_id = $1
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query module settings: %w", err)
	}
	defer rows.Close()

	var settings []*models.ModuleSetting
	for rows.Next() {
		setting := &models.ModuleSetting{}
		if err := rows.Scan(&setting.OrgID, &setting.Module, &setting.Enabled,
			&setting.UpdatedBy, &setting.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan module setting: %w", err)
		}
		settings = append(settings, setting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating module setting rows: %w", err)
	}

	return settings, nil
}

// Upsert creates or replaces a module setting
func (r *ModuleSettingRepository) Upsert(ctx context.Context, setting *models.ModuleSetting) error {
	query := `
		INSERT INTO module_settings (org_id, module, enabled, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (org_id, module) DO UPDATE
		SET enabled = EXCLUDED.enabled,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = EXCLUDED.updated_at
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		setting.OrgID, setting.Module, setting.Enabled, setting.UpdatedBy, setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert module setting: %w", err)
	}

	r.logger.Debug("module setting upserted",
		zap.String("org_id", setting.OrgID.String()),
		zap.String("module", string(setting.Module)),
		zap.Bool("enabled", setting.Enabled))
	return nil
}
