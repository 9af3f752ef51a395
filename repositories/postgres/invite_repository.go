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

// InviteRepository implements the repositories.InviteRepository interface
type InviteRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *DB, logger *zap.Logger) repositories.InviteRepository {
	return &InviteRepository{db: db, logger: logger}
}

// Create creates a new invite
func (r *InviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	query := `
		INSERT INTO invites (id, org_id, email, role, group_id, token_hash, status, invited_by, expires_at, accepted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		invite.ID, invite.OrgID, invite.Email, invite.Role, invite.GroupID,
		invite.TokenHash, invite.Status, invite.InvitedBy, invite.ExpiresAt,
		invite.AcceptedAt, invite.CreatedAt, invite.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}

	r.logger.Debug("invite created", zap.String("id", invite.ID.String()))
	return nil
}

// GetByID retrieves an invite by ID
func (r *InviteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	query := selectInvite + ` WHERE id = $1`
	return r.scanOne(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByTokenHash retrieves an invite by its token hash
func (r *InviteRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Invite, error) {
	query := selectInvite + ` WHERE token_hash = $1`
	return r.scanOne(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tokenHash))
}

// GetByOrgID retrieves all invites for an organization, newest first
func (r *InviteRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.Invite, error) {
	query := selectInvite + ` WHERE org_id = $1 ORDER BY created_at DESC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	var invites []*models.Invite
	for rows.Next() {
		invite := &models.Invite{}
		if err := rows.Scan(&invite.ID, &invite.OrgID, &invite.Email, &invite.Role,
			&invite.GroupID, &invite.TokenHash, &invite.Status, &invite.InvitedBy,
			&invite.ExpiresAt, &invite.AcceptedAt, &invite.CreatedAt, &invite.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, invite)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invite rows: %w", err)
	}

	return invites, nil
}

// Update updates an invite
func (r *InviteRepository) Update(ctx context.Context, invite *models.Invite) error {
	query := `
		UPDATE invites
		SET status = $2, accepted_at = $3, updated_at = $4
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		invite.ID, invite.Status, invite.AcceptedAt, invite.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update invite: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("invite not found: %s", invite.ID)
	}

	r.logger.Debug("invite updated", zap.String("id", invite.ID.String()))
	return nil
}

const selectInvite = `
	SELECT id, org_id, email, role, group_id, token_hash, status, invited_by, expires_at, accepted_at, created_at, updated_at
	FROM invites`

func (r *InviteRepository) scanOne(row *sql.Row) (*models.Invite, error) {
	invite := &models.Invite{}
	err := row.Scan(&invite.ID, &invite.OrgID, &invite.Email, &invite.Role,
		&invite.GroupID, &invite.TokenHash, &invite.Status, &invite.InvitedBy,
		&invite.ExpiresAt, &invite.AcceptedAt, &invite.CreatedAt, &invite.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invite not found")
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return invite, nil
}
