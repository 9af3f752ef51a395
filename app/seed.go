package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
)

// SeedFile is the YAML shape of a development seed: one organization with its
// owner, cost centers, groups, members, the org policy document and chargeback
// rules. Groups and splits reference cost centers by code.
type SeedFile struct {
	Organization struct {
		Name string `yaml:"name"`
		Slug string `yaml:"slug"`
	} `yaml:"organization"`

	Owner struct {
		Email string `yaml:"email"`
		Name  string `yaml:"name"`
	} `yaml:"owner"`

	CostCenters []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"cost_centers"`

	Groups []struct {
		Name       string `yaml:"name"`
		CostCenter string `yaml:"cost_center"`
	} `yaml:"groups"`

	Users []struct {
		Email string `yaml:"email"`
		Name  string `yaml:"name"`
		Role  string `yaml:"role"`
		Group string `yaml:"group"`
	} `yaml:"users"`

	// Policy is the org document as a free-form YAML map; it is converted
	// through JSON so the document's field names apply.
	Policy map[string]interface{} `yaml:"policy"`

	ChargebackRules []struct {
		Priority  int    `yaml:"priority"`
		MatchType string `yaml:"match_type"`
		MatchKey  string `yaml:"match_key"`
		Splits    []struct {
			CostCenter string `yaml:"cost_center"`
			Percent    int64  `yaml:"percent"`
		} `yaml:"splits"`
	} `yaml:"chargeback_rules"`

	Modules map[string]bool `yaml:"modules"`
}

// ApplySeed loads a YAML seed file and creates its records. Seeding is skipped
// when the organization slug already exists, so restarts stay clean.
func ApplySeed(ctx context.Context, path string, repos *repositories.Repositories, logger *zap.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}
	if seed.Organization.Slug == "" {
		return fmt.Errorf("seed file has no organization slug")
	}

	if existing, err := repos.Organizations.GetBySlug(ctx, seed.Organization.Slug); err == nil && existing != nil {
		logger.Info("seed organization already present, skipping",
			zap.String("slug", seed.Organization.Slug))
		return nil
	}

	org := models.NewOrganization(seed.Organization.Name, seed.Organization.Slug)
	if err := repos.Organizations.Create(ctx, org); err != nil {
		return fmt.Errorf("failed to seed organization: %w", err)
	}

	owner := models.NewUser(org.ID, strings.ToLower(seed.Owner.Email), seed.Owner.Name, models.RoleOwner)
	if err := repos.Users.Create(ctx, owner); err != nil {
		return fmt.Errorf("failed to seed owner: %w", err)
	}

	costCenters := make(map[string]uuid.UUID, len(seed.CostCenters))
	for _, cc := range seed.CostCenters {
		record := models.NewCostCenter(org.ID, cc.Code, cc.Name)
		if err := repos.CostCenters.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to seed cost center %q: %w", cc.Code, err)
		}
		costCenters[cc.Code] = record.ID
	}

	groups := make(map[string]uuid.UUID, len(seed.Groups))
	for _, g := range seed.Groups {
		record := models.NewGroup(org.ID, g.Name)
		if g.CostCenter != "" {
			ccID, ok := costCenters[g.CostCenter]
			if !ok {
				return fmt.Errorf("group %q references unknown cost center %q", g.Name, g.CostCenter)
			}
			record.CostCenterID = &ccID
		}
		if err := repos.Groups.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to seed group %q: %w", g.Name, err)
		}
		groups[g.Name] = record.ID
	}

	for _, u := range seed.Users {
		role := models.Role(u.Role)
		if !models.ValidRole(role) {
			return fmt.Errorf("user %q has unknown role %q", u.Email, u.Role)
		}
		record := models.NewUser(org.ID, strings.ToLower(u.Email), u.Name, role)
		if u.Group != "" {
			groupID, ok := groups[u.Group]
			if !ok {
				return fmt.Errorf("user %q references unknown group %q", u.Email, u.Group)
			}
			record.GroupID = &groupID
		}
		if err := repos.Users.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to seed user %q: %w", u.Email, err)
		}
	}

	if seed.Policy != nil {
		document, err := policyFromSeed(seed.Policy)
		if err != nil {
			return err
		}
		policy := &models.OrgPolicy{OrgID: org.ID, Document: document, UpdatedBy: owner.ID,
			CreatedAt: org.CreatedAt, UpdatedAt: org.CreatedAt}
		if err := repos.Policies.UpsertOrgPolicy(ctx, policy); err != nil {
			return fmt.Errorf("failed to seed org policy: %w", err)
		}
	}

	for i, r := range seed.ChargebackRules {
		splits := make([]models.ChargebackSplit, len(r.Splits))
		for j, s := range r.Splits {
			ccID, ok := costCenters[s.CostCenter]
			if !ok {
				return fmt.Errorf("chargeback rule %d references unknown cost center %q", i, s.CostCenter)
			}
			splits[j] = models.ChargebackSplit{CostCenterID: ccID, Percent: s.Percent}
		}
		rule := models.NewChargebackRule(org.ID, r.Priority,
			models.ChargebackMatchType(r.MatchType), r.MatchKey, splits)
		if err := repos.ChargebackRules.Create(ctx, rule); err != nil {
			return fmt.Errorf("failed to seed chargeback rule %d: %w", i, err)
		}
	}

	for name, enabled := range seed.Modules {
		module := models.ConsoleModule(name)
		if !models.KnownModule(module) {
			return fmt.Errorf("seed references unknown module %q", name)
		}
		setting := &models.ModuleSetting{OrgID: org.ID, Module: module, Enabled: enabled,
			UpdatedBy: owner.ID, UpdatedAt: org.CreatedAt}
		if err := repos.ModuleSettings.Upsert(ctx, setting); err != nil {
			return fmt.Errorf("failed to seed module %q: %w", name, err)
		}
	}

	logger.Info("seed data applied",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
		zap.Int("groups", len(seed.Groups)),
		zap.Int("users", len(seed.Users)+1))
	return nil
}

// policyFromSeed converts the free-form YAML map through JSON so the policy
// document's json field names apply.
func policyFromSeed(raw map[string]interface{}) (models.PolicyDocument, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return models.PolicyDocument{}, fmt.Errorf("failed to convert seed policy: %w", err)
	}
	var document models.PolicyDocument
	if err := json.Unmarshal(buf, &document); err != nil {
		return models.PolicyDocument{}, fmt.Errorf("failed to parse seed policy: %w", err)
	}
	return document, nil
}
