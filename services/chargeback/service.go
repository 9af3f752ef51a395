// Package chargeback implements cost-center allocation: matching tagged spend
// against the organization's chargeback rules and splitting amounts.
package chargeback

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/services"
)

var oneHundred = decimal.NewFromInt(100)

// Allocation is one cost center's share of a split amount.
type Allocation struct {
	CostCenterID uuid.UUID       `json:"cost_center_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// Match selects the chargeback rule for a tag: enabled rules whose match type
// equals tagType and whose match key equals tagKey case-insensitively. Among
// candidates the lowest priority number wins; ties keep the earliest rule in
// the input order. Returns nil when nothing matches.
func Match(rules []*models.ChargebackRule, tagType models.ChargebackMatchType, tagKey string) *models.ChargebackRule {
	var best *models.ChargebackRule
	for _, rule := range rules {
		if !rule.Enabled || rule.MatchType != tagType || !strings.EqualFold(rule.MatchKey, tagKey) {
			continue
		}
		if best == nil || rule.Priority < best.Priority {
			best = rule
		}
	}
	return best
}

// SplitAmount divides amount across the rule's splits. Each share is
// round-half-up(amount * percent / 100) to two decimal places, computed
// independently per split. The shares may not sum back to amount exactly;
// that drift is a documented property of the allocation, reported by
// SplitDrift rather than corrected here.
func SplitAmount(amount decimal.Decimal, rule *models.ChargebackRule) []Allocation {
	allocations := make([]Allocation, len(rule.Splits))
	for i, split := range rule.Splits {
		share := amount.
			Mul(decimal.NewFromInt(split.Percent)).
			Div(oneHundred).
			Round(2) // decimal rounds half away from zero, i.e. half-up for positive amounts
		allocations[i] = Allocation{CostCenterID: split.CostCenterID, Amount: share}
	}
	return allocations
}

// SplitDrift returns sum(allocations) - amount, the rounding drift of a split.
func SplitDrift(amount decimal.Decimal, allocations []Allocation) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range allocations {
		sum = sum.Add(a.Amount)
	}
	return sum.Sub(amount)
}

// ValidateRule enforces the save-time invariants: a known match type, a
// non-empty match key, a non-negative priority, and splits that sum to
// exactly 100 with each percent in (0, 100].
func ValidateRule(rule *models.ChargebackRule) error {
	switch rule.MatchType {
	case models.ChargebackMatchGroup, models.ChargebackMatchProject, models.ChargebackMatchPurpose:
	default:
		return services.ErrInvalidMatch.WithDetail("match_type", string(rule.MatchType))
	}
	if strings.TrimSpace(rule.MatchKey) == "" {
		return services.ErrInvalidMatch.WithDetail("match_key", "required")
	}
	if rule.Priority < 0 {
		return services.ErrInvalidInput.WithDetail("priority", "must be non-negative")
	}
	if len(rule.Splits) == 0 {
		return services.ErrInvalidSplits.WithDetail("splits", "at least one split is required")
	}

	var total int64
	for i, split := range rule.Splits {
		if split.CostCenterID == uuid.Nil {
			return services.ErrInvalidSplits.WithDetail("splits", fmt.Sprintf("split %d is missing a cost center", i))
		}
		if split.Percent <= 0 || split.Percent > 100 {
			return services.ErrInvalidSplits.WithDetail("splits", fmt.Sprintf("split %d percent must be in (0, 100]", i))
		}
		total += split.Percent
	}
	if total != 100 {
		return services.ErrInvalidSplits.WithDetail("total_percent", total)
	}
	return nil
}

// PreviewResult is the outcome of a chargeback preview: the matched rule (nil
// when no rule applies), its allocations and the rounding drift.
type PreviewResult struct {
	Rule        *models.ChargebackRule `json:"rule,omitempty"`
	Allocations []Allocation           `json:"allocations,omitempty"`
	Drift       decimal.Decimal        `json:"drift"`
}

// Service manages chargeback rules and previews allocations.
type Service struct {
	rules  repositories.ChargebackRuleRepository
	logger *zap.Logger
}

// NewService creates a chargeback Service.
func NewService(rules repositories.ChargebackRuleRepository, logger *zap.Logger) *Service {
	return &Service{rules: rules, logger: logger}
}

// CreateRule validates and persists a new rule.
func (s *Service) CreateRule(ctx context.Context, rule *models.ChargebackRule) error {
	if err := ValidateRule(rule); err != nil {
		return err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return services.WrapInternal("failed to create chargeback rule", err)
	}
	s.logger.Info("chargeback rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("match_type", string(rule.MatchType)),
		zap.String("match_key", rule.MatchKey))
	return nil
}

// UpdateRule validates and persists changes to an existing rule. The rule must
// belong to orgID.
func (s *Service) UpdateRule(ctx context.Context, orgID uuid.UUID, rule *models.ChargebackRule) error {
	existing, err := s.rules.GetByID(ctx, rule.ID)
	if err != nil {
		return services.ErrRuleNotFound
	}
	if existing.OrgID != orgID {
		return services.ErrOrgMismatch
	}
	if err := ValidateRule(rule); err != nil {
		return err
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		return services.WrapInternal("failed to update chargeback rule", err)
	}
	s.logger.Info("chargeback rule updated", zap.String("rule_id", rule.ID.String()))
	return nil
}

// DeleteRule removes a rule after checking ownership.
func (s *Service) DeleteRule(ctx context.Context, orgID, ruleID uuid.UUID) error {
	existing, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return services.ErrRuleNotFound
	}
	if existing.OrgID != orgID {
		return services.ErrOrgMismatch
	}
	if err := s.rules.Delete(ctx, ruleID); err != nil {
		return services.WrapInternal("failed to delete chargeback rule", err)
	}
	s.logger.Info("chargeback rule deleted", zap.String("rule_id", ruleID.String()))
	return nil
}

// GetRule returns one rule after checking ownership.
func (s *Service) GetRule(ctx context.Context, orgID, ruleID uuid.UUID) (*models.ChargebackRule, error) {
	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, services.ErrRuleNotFound
	}
	if rule.OrgID != orgID {
		return nil, services.ErrOrgMismatch
	}
	return rule, nil
}

// ListRules returns the organization's rules in matching order.
func (s *Service) ListRules(ctx context.Context, orgID uuid.UUID) ([]*models.ChargebackRule, error) {
	rules, err := s.rules.GetByOrgID(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("failed to list chargeback rules", err)
	}
	return rules, nil
}

// Preview matches a tag against the organization's rules and splits amount
// with the winning rule. A preview with no matching rule is a normal result,
// not an error.
func (s *Service) Preview(ctx context.Context, orgID uuid.UUID, tagType models.ChargebackMatchType, tagKey string, amount decimal.Decimal) (*PreviewResult, error) {
	rules, err := s.rules.GetByOrgID(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("failed to load chargeback rules", err)
	}

	rule := Match(rules, tagType, tagKey)
	if rule == nil {
		s.logger.Debug("chargeback preview matched no rule",
			zap.String("org_id", orgID.String()),
			zap.String("tag_type", string(tagType)),
			zap.String("tag_key", tagKey))
		return &PreviewResult{Drift: decimal.Zero}, nil
	}

	allocations := SplitAmount(amount, rule)
	return &PreviewResult{
		Rule:        rule,
		Allocations: allocations,
		Drift:       SplitDrift(amount, allocations),
	}, nil
}
