package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/corporatepay/console-api/models"
)

// TransactionManager manages database transactions. Repositories pick up an
// in-flight transaction from the context, so callers only need InTransaction.
type TransactionManager interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes fn within a transaction, committing on success
	// and rolling back on error. The ctx passed to fn carries the transaction.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// OrganizationRepository handles organization data operations.
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
}

// GroupRepository handles group data operations.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository handles user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.User, error)
	GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// PolicyRepository handles the org policy document and scope overrides.
type PolicyRepository interface {
	// GetOrgPolicy retrieves the organization policy document.
	GetOrgPolicy(ctx context.Context, orgID uuid.UUID) (*models.OrgPolicy, error)

	// UpsertOrgPolicy creates or replaces the organization policy document.
	UpsertOrgPolicy(ctx context.Context, policy *models.OrgPolicy) error

	// GetOverride retrieves the override for a group or user subject.
	// Returns (nil, nil) when the subject has no override; that is the normal
	// "inherit everything" state, not an error.
	GetOverride(ctx context.Context, scope models.OverrideScope, subjectID uuid.UUID) (*models.PolicyOverrideRecord, error)

	// UpsertOverride creates or replaces a subject's override.
	UpsertOverride(ctx context.Context, record *models.PolicyOverrideRecord) error

	// DeleteOverride removes a subject's override. Deleting a missing override
	// is not an error.
	DeleteOverride(ctx context.Context, scope models.OverrideScope, subjectID uuid.UUID) error
}

// CostCenterRepository handles cost center data operations.
type CostCenterRepository interface {
	Create(ctx context.Context, cc *models.CostCenter) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CostCenter, error)
	GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.CostCenter, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChargebackRuleRepository handles chargeback rule data operations.
type ChargebackRuleRepository interface {
	Create(ctx context.Context, rule *models.ChargebackRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChargebackRule, error)

	// GetByOrgID returns the organization's rules ordered by priority number
	// ascending, then creation time ascending, so matching stays stable.
	GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.ChargebackRule, error)

	Update(ctx context.Context, rule *models.ChargebackRule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ModuleSettingRepository handles per-organization module enablement.
type ModuleSettingRepository interface {
	GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.ModuleSetting, error)
	Upsert(ctx context.Context, setting *models.ModuleSetting) error
}

// InviteRepository handles invite data operations.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Invite, error)
	GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.Invite, error)
	Update(ctx context.Context, invite *models.Invite) error
}

// APIKeyRepository handles developer-center API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error)
	GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error)
	Update(ctx context.Context, key *models.APIKey) error
}

// AuditRepository handles the governance trail.
type AuditRepository interface {
	Insert(ctx context.Context, log *models.AuditLog) error
	GetByOrgID(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces.
type Repositories struct {
	Organizations   OrganizationRepository
	Groups          GroupRepository
	Users           UserRepository
	Policies        PolicyRepository
	CostCenters     CostCenterRepository
	ChargebackRules ChargebackRuleRepository
	ModuleSettings  ModuleSettingRepository
	Invites         InviteRepository
	APIKeys         APIKeyRepository
	AuditLogs       AuditRepository
}
