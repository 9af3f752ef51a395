// Package modules implements the settings hub: per-organization enablement of
// console modules with dependency checks.
package modules

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/services"
)

// moduleDefaults is the enablement state for modules with no stored setting.
var moduleDefaults = map[models.ConsoleModule]bool{
	models.ModuleRides:     true,
	models.ModulePurchases: true,
	models.ModuleECommerce: false,
	models.ModuleServices:  false,
	models.ModuleApprovals: true,
	models.ModuleReports:   true,
}

// requires maps a module to the module it depends on. Enabling a dependent
// module needs the dependency on; disabling a dependency needs all dependents
// off first.
var requires = map[models.ConsoleModule]models.ConsoleModule{
	models.ModuleECommerce: models.ModulePurchases,
}

// Service manages module settings.
type Service struct {
	settings repositories.ModuleSettingRepository
	logger   *zap.Logger
}

// NewService creates a modules Service.
func NewService(settings repositories.ModuleSettingRepository, logger *zap.Logger) *Service {
	return &Service{settings: settings, logger: logger}
}

// List returns the full module catalog with the organization's enablement
// state, defaults filled in for modules never toggled.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]*models.ModuleSetting, error) {
	stored, err := s.settings.GetByOrgID(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("failed to load module settings", err)
	}

	byModule := make(map[models.ConsoleModule]*models.ModuleSetting, len(stored))
	for _, setting := range stored {
		byModule[setting.Module] = setting
	}

	out := make([]*models.ModuleSetting, 0, len(models.ModuleCatalog))
	for _, module := range models.ModuleCatalog {
		if setting, ok := byModule[module]; ok {
			out = append(out, setting)
			continue
		}
		out = append(out, &models.ModuleSetting{
			OrgID:   orgID,
			Module:  module,
			Enabled: moduleDefaults[module],
		})
	}
	return out, nil
}

// Toggle sets a module's enablement, enforcing the dependency rules.
func (s *Service) Toggle(ctx context.Context, orgID uuid.UUID, module models.ConsoleModule, enabled bool, updatedBy uuid.UUID) (*models.ModuleSetting, error) {
	if !models.KnownModule(module) {
		return nil, services.ErrUnknownModule.WithDetail("module", string(module))
	}

	state, err := s.enablementMap(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if enabled {
		if dep, ok := requires[module]; ok && !state[dep] {
			return nil, services.ErrModuleDependency.
				WithDetail("module", string(module)).
				WithDetail("requires", string(dep))
		}
	} else {
		for dependent, dep := range requires {
			if dep == module && state[dependent] {
				return nil, services.ErrModuleDependency.
					WithDetail("module", string(module)).
					WithDetail("required_by", string(dependent))
			}
		}
	}

	setting := &models.ModuleSetting{
		OrgID:     orgID,
		Module:    module,
		Enabled:   enabled,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now(),
	}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, services.WrapInternal("failed to save module setting", err)
	}

	s.logger.Info("module toggled",
		zap.String("org_id", orgID.String()),
		zap.String("module", string(module)),
		zap.Bool("enabled", enabled))
	return setting, nil
}

func (s *Service) enablementMap(ctx context.Context, orgID uuid.UUID) (map[models.ConsoleModule]bool, error) {
	settings, err := s.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	state := make(map[models.ConsoleModule]bool, len(settings))
	for _, setting := range settings {
		state[setting.Module] = setting.Enabled
	}
	return state, nil
}
