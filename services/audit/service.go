// Package audit implements the governance trail.
package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/services"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service records and lists audit entries.
type Service struct {
	logs   repositories.AuditRepository
	logger *zap.Logger
}

// NewService creates an audit Service.
func NewService(logs repositories.AuditRepository, logger *zap.Logger) *Service {
	return &Service{logs: logs, logger: logger}
}

// Record appends an entry to the trail. Audit failures are logged but never
// fail the operation being audited.
func (s *Service) Record(ctx context.Context, orgID uuid.UUID, actorID *uuid.UUID, action models.AuditAction, resourceType string, resourceID *uuid.UUID, details interface{}, requestID string) {
	entry := models.NewAuditLog(orgID, actorID, action, resourceType, resourceID)
	entry.RequestID = requestID

	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("failed to marshal audit details",
				zap.String("action", string(action)), zap.Error(err))
		} else {
			entry.Details = raw
		}
	}

	if err := s.logs.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry",
			zap.String("action", string(action)),
			zap.String("org_id", orgID.String()),
			zap.Error(err))
	}
}

// List returns a page of the organization's trail, newest first. Limit is
// clamped to a sane range.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.logs.GetByOrgID(ctx, orgID, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list audit logs", err)
	}
	return logs, nil
}
