package policy

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/services"
)

// Scope identifies whose effective policy is being resolved. GroupID and
// UserID are optional; when only UserID is given the user's own group is used.
type Scope struct {
	OrgID   uuid.UUID
	GroupID *uuid.UUID
	UserID  *uuid.UUID
}

// Service resolves effective policies, manages the org document and scope
// overrides, and orchestrates simulations.
type Service struct {
	policies repositories.PolicyRepository
	groups   repositories.GroupRepository
	users    repositories.UserRepository
	cache    *EffectiveCache
	logger   *zap.Logger
}

// NewService creates a policy Service.
func NewService(
	policies repositories.PolicyRepository,
	groups repositories.GroupRepository,
	users repositories.UserRepository,
	cache *EffectiveCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		policies: policies,
		groups:   groups,
		users:    users,
		cache:    cache,
		logger:   logger,
	}
}

// GetOrgPolicy returns the organization policy document.
func (s *Service) GetOrgPolicy(ctx context.Context, orgID uuid.UUID) (*models.OrgPolicy, error) {
	policy, err := s.policies.GetOrgPolicy(ctx, orgID)
	if err != nil {
		return nil, services.ErrPolicyNotFound
	}
	return policy, nil
}

// UpdateOrgPolicy validates and replaces the organization policy document,
// invalidating every cached scope of the organization.
func (s *Service) UpdateOrgPolicy(ctx context.Context, orgID uuid.UUID, document models.PolicyDocument, updatedBy uuid.UUID) error {
	if err := validateDocument(document); err != nil {
		return err
	}

	now := time.Now()
	policy := &models.OrgPolicy{
		OrgID:     orgID,
		Document:  document,
		UpdatedBy: updatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.policies.UpsertOrgPolicy(ctx, policy); err != nil {
		return services.WrapInternal("failed to save org policy", err)
	}

	s.cache.InvalidateOrg(orgID)
	s.logger.Info("org policy updated",
		zap.String("org_id", orgID.String()),
		zap.String("updated_by", updatedBy.String()))
	return nil
}

// GetOverride returns the override record for a subject, or ErrOverrideNotFound
// when the subject inherits everything.
func (s *Service) GetOverride(ctx context.Context, scope models.OverrideScope, subjectID uuid.UUID) (*models.PolicyOverrideRecord, error) {
	record, err := s.policies.GetOverride(ctx, scope, subjectID)
	if err != nil {
		return nil, services.WrapInternal("failed to load policy override", err)
	}
	if record == nil {
		return nil, services.ErrOverrideNotFound
	}
	return record, nil
}

// UpsertOverride validates and stores a subject's override. The subject must
// exist and belong to orgID. An override that replaces no fields is rejected;
// use DeleteOverride to restore full inheritance.
func (s *Service) UpsertOverride(ctx context.Context, orgID uuid.UUID, scope models.OverrideScope, subjectID uuid.UUID, override models.PolicyOverride, updatedBy uuid.UUID) (*models.PolicyOverrideRecord, error) {
	if err := s.checkSubject(ctx, orgID, scope, subjectID); err != nil {
		return nil, err
	}
	if override.IsEmpty() {
		return nil, services.ErrInvalidOverride.WithDetail("override", "replaces no fields")
	}
	if err := validateOverride(override); err != nil {
		return nil, err
	}

	record := models.NewPolicyOverrideRecord(orgID, scope, subjectID, override, updatedBy)
	if err := s.policies.UpsertOverride(ctx, record); err != nil {
		return nil, services.WrapInternal("failed to save policy override", err)
	}

	s.invalidateSubject(scope, subjectID)
	s.logger.Info("policy override upserted",
		zap.String("scope", string(scope)),
		zap.String("subject_id", subjectID.String()))
	return record, nil
}

// DeleteOverride removes a subject's override. Deleting an override that does
// not exist is a no-op.
func (s *Service) DeleteOverride(ctx context.Context, scope models.OverrideScope, subjectID uuid.UUID) error {
	if err := s.policies.DeleteOverride(ctx, scope, subjectID); err != nil {
		return services.WrapInternal("failed to delete policy override", err)
	}

	s.invalidateSubject(scope, subjectID)
	s.logger.Info("policy override deleted",
		zap.String("scope", string(scope)),
		zap.String("subject_id", subjectID.String()))
	return nil
}

// Effective resolves the merged policy document for a scope: org document plus
// group then user overrides. Results are cached per scope.
func (s *Service) Effective(ctx context.Context, scope Scope) (models.PolicyDocument, error) {
	scope, err := s.resolveScope(ctx, scope)
	if err != nil {
		return models.PolicyDocument{}, err
	}

	key := CacheKey{OrgID: scope.OrgID, GroupID: scope.GroupID, UserID: scope.UserID}
	if document, ok := s.cache.Get(key); ok {
		return document, nil
	}

	orgPolicy, err := s.policies.GetOrgPolicy(ctx, scope.OrgID)
	if err != nil {
		return models.PolicyDocument{}, services.ErrPolicyNotFound
	}

	groupOverride, userOverride, err := s.loadOverrides(ctx, scope)
	if err != nil {
		return models.PolicyDocument{}, err
	}

	merged := Merge(orgPolicy.Document, groupOverride, userOverride)
	s.cache.Set(key, merged)
	return merged, nil
}

// FieldSources resolves the per-field origin map for a scope, for the
// console's "inherited from" badges.
func (s *Service) FieldSources(ctx context.Context, scope Scope) (map[string]Source, error) {
	scope, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	groupOverride, userOverride, err := s.loadOverrides(ctx, scope)
	if err != nil {
		return nil, err
	}

	return Sources(groupOverride, userOverride), nil
}

// SimulateScope resolves the effective policy for a scope and runs the
// simulator. The input is checked here so transport callers get a validation
// error instead of the simulator's fail-fast panic.
func (s *Service) SimulateScope(ctx context.Context, scope Scope, input SimulationInput) (SimulationResult, error) {
	if err := checkInput(input); err != nil {
		return SimulationResult{}, err
	}

	effective, err := s.Effective(ctx, scope)
	if err != nil {
		return SimulationResult{}, err
	}

	return Simulate(effective, input), nil
}

// CacheStats exposes effective-cache statistics for the health endpoint.
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

// resolveScope fills in the group of a user-scope request and checks tenancy.
func (s *Service) resolveScope(ctx context.Context, scope Scope) (Scope, error) {
	if scope.UserID != nil {
		user, err := s.users.GetByID(ctx, *scope.UserID)
		if err != nil {
			return scope, services.ErrUserNotFound
		}
		if user.OrgID != scope.OrgID {
			return scope, services.ErrOrgMismatch
		}
		if scope.GroupID == nil {
			scope.GroupID = user.GroupID
		}
	}
	if scope.GroupID != nil {
		group, err := s.groups.GetByID(ctx, *scope.GroupID)
		if err != nil {
			return scope, services.ErrGroupNotFound
		}
		if group.OrgID != scope.OrgID {
			return scope, services.ErrOrgMismatch
		}
	}
	return scope, nil
}

func (s *Service) loadOverrides(ctx context.Context, scope Scope) (group, user *models.PolicyOverride, err error) {
	if scope.GroupID != nil {
		record, err := s.policies.GetOverride(ctx, models.OverrideScopeGroup, *scope.GroupID)
		if err != nil {
			return nil, nil, services.WrapInternal("failed to load group override", err)
		}
		if record != nil {
			group = &record.Override
		}
	}
	if scope.UserID != nil {
		record, err := s.policies.GetOverride(ctx, models.OverrideScopeUser, *scope.UserID)
		if err != nil {
			return nil, nil, services.WrapInternal("failed to load user override", err)
		}
		if record != nil {
			user = &record.Override
		}
	}
	return group, user, nil
}

func (s *Service) checkSubject(ctx context.Context, orgID uuid.UUID, scope models.OverrideScope, subjectID uuid.UUID) error {
	switch scope {
	case models.OverrideScopeGroup:
		group, err := s.groups.GetByID(ctx, subjectID)
		if err != nil {
			return services.ErrGroupNotFound
		}
		if group.OrgID != orgID {
			return services.ErrOrgMismatch
		}
	case models.OverrideScopeUser:
		user, err := s.users.GetByID(ctx, subjectID)
		if err != nil {
			return services.ErrUserNotFound
		}
		if user.OrgID != orgID {
			return services.ErrOrgMismatch
		}
	default:
		return services.ErrInvalidInput.WithDetail("scope", string(scope))
	}
	return nil
}

func (s *Service) invalidateSubject(scope models.OverrideScope, subjectID uuid.UUID) {
	switch scope {
	case models.OverrideScopeGroup:
		s.cache.InvalidateGroup(subjectID)
	case models.OverrideScopeUser:
		s.cache.InvalidateUser(subjectID)
	}
}

func checkInput(input SimulationInput) error {
	switch input.Kind {
	case InputRide:
		if input.Ride == nil {
			return services.ErrInvalidInput.WithDetail("ride", "required for kind ride")
		}
	case InputPurchase:
		if input.Purchase == nil {
			return services.ErrInvalidInput.WithDetail("purchase", "required for kind purchase")
		}
	case InputService:
		if input.Service == nil {
			return services.ErrInvalidInput.WithDetail("service", "required for kind service")
		}
	default:
		return services.ErrInvalidInput.WithDetail("kind", string(input.Kind))
	}
	return nil
}

var (
	timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	weekdays    = map[string]bool{
		"Mon": true, "Tue": true, "Wed": true, "Thu": true,
		"Fri": true, "Sat": true, "Sun": true,
	}
)

// validateDocument enforces the save-time invariants of an org document.
// Evaluation never validates; malformed documents must not reach storage.
func validateDocument(doc models.PolicyDocument) error {
	if err := validateTimeWindow(doc.Rides.Time); err != nil {
		return err
	}
	if doc.Purchases.MaxBasket.IsNegative() {
		return services.ErrInvalidInput.WithDetail("max_basket", "must not be negative")
	}
	if doc.Purchases.Attachments.Threshold.IsNegative() {
		return services.ErrInvalidInput.WithDetail("attachment_threshold", "must not be negative")
	}
	return nil
}

// validateOverride checks only the fields the override actually replaces.
func validateOverride(override models.PolicyOverride) error {
	if override.Rides.Time != nil {
		if err := validateTimeWindow(*override.Rides.Time); err != nil {
			return err
		}
	}
	if override.Purchases.MaxBasket != nil && override.Purchases.MaxBasket.IsNegative() {
		return services.ErrInvalidInput.WithDetail("max_basket", "must not be negative")
	}
	if override.Purchases.Attachments != nil && override.Purchases.Attachments.Threshold.IsNegative() {
		return services.ErrInvalidInput.WithDetail("attachment_threshold", "must not be negative")
	}
	return nil
}

func validateTimeWindow(tw models.TimeWindow) error {
	if tw.Start != "" || tw.End != "" {
		if !timeOfDayRe.MatchString(tw.Start) || !timeOfDayRe.MatchString(tw.End) {
			return services.ErrInvalidTimeWindow.WithDetail("window", tw.Start+"-"+tw.End)
		}
		if tw.Start > tw.End {
			return services.ErrInvalidTimeWindow.WithDetail("window", "start is after end")
		}
	}
	for _, day := range tw.Days {
		if !weekdays[day] {
			return services.ErrInvalidTimeWindow.WithDetail("day", day)
		}
	}
	return nil
}
