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

// APIKeyRepository implements the repositories.APIKeyRepository interface
type APIKeyRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *DB, logger *zap.Logger) repositories.APIKeyRepository {
	return &APIKeyRepository{db: db, logger: logger}
}

// Create creates a new API key record
func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	query := `
		INSERT INTO api_keys (id, org_id, name, key_hash, prefix, created_by, last_used_at, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		key.ID, key.OrgID, key.Name, key.KeyHash, key.Prefix, key.CreatedBy,
		key.LastUsedAt, key.RevokedAt, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	r.logger.Debug("api key created", zap.String("id", key.ID.String()))
	return nil
}

// GetByID retrieves an API key by ID
func (r *APIKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	query := selectAPIKey + ` WHERE id = $1`
	return r.scanOne(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByHash retrieves an API key by its hash
func (r *APIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := selectAPIKey + ` WHERE key_hash = $1`
	return r.scanOne(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, keyHash))
}

// GetByOrgID retrieves all API keys for an organization, newest first
func (r *APIKeyRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error) {
	query := selectAPIKey + ` WHERE org_id = $1 ORDER BY created_at DESC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		key := &models.APIKey{}
		if err := rows.Scan(&key.ID, &key.OrgID, &key.Name, &key.KeyHash, &key.Prefix,
			&key.CreatedBy, &key.LastUsedAt, &key.RevokedAt, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api key rows: %w", err)
	}

	return keys, nil
}

// Update updates an API key record
func (r *APIKeyRepository) Update(ctx context.Context, key *models.APIKey) error {
	query := `
		UPDATE api_keys
		SET name = $2, last_used_at = $3, revoked_at = $4
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		key.ID, key.Name, key.LastUsedAt, key.RevokedAt)
	if err != nil {
		return fmt.Errorf("failed to update api key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("api key not found: %s", key.ID)
	}

	r.logger.Debug("api key updated", zap.String("id", key.ID.String()))
	return nil
}

const selectAPIKey = `
	SELECT id, org_id, name, key_hash, prefix, created_by, last_used_at, revoked_at, created_at
	FROM api_keys`

func (r *APIKeyRepository) scanOne(row *sql.Row) (*models.APIKey, error) {
	key := &models.APIKey{}
	err := row.Scan(&key.ID, &key.OrgID, &key.Name, &key.KeyHash, &key.Prefix,
		&key.CreatedBy, &key.LastUsedAt, &key.RevokedAt, &key.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("api key not found")
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return key, nil
}
