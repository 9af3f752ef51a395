package postgres

import (
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/repositories"
)

// NewRepositories builds the full repository set over one database connection.
func NewRepositories(db *DB, logger *zap.Logger) *repositories.Repositories {
	return &repositories.Repositories{
		Organizations:   NewOrganizationRepository(db, logger),
		Groups:          NewGroupRepository(db, logger),
		Users:           NewUserRepository(db, logger),
		Policies:        NewPolicyRepository(db, logger),
		CostCenters:     NewCostCenterRepository(db, logger),
		ChargebackRules: NewChargebackRuleRepository(db, logger),
		ModuleSettings:  NewModuleSettingRepository(db, logger),
		Invites:         NewInviteRepository(db, logger),
		APIKeys:         NewAPIKeyRepository(db, logger),
		AuditLogs:       NewAuditRepository(db, logger),
	}
}
