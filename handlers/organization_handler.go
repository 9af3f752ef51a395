package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/utils"
)

// UpdateOrganizationRequest represents a request to update the organization
type UpdateOrganizationRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
}

// OrganizationHandler handles organization HTTP requests
type OrganizationHandler struct {
	orgRepo repositories.OrganizationRepository
	logger  *zap.Logger
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(orgRepo repositories.OrganizationRepository, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgRepo: orgRepo,
		logger:  logger,
	}
}

// HandleGetOrganization handles GET /api/v1/org
func (h *OrganizationHandler) HandleGetOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	org, err := h.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		h.logger.Error("failed to fetch organization",
			zap.String("request_id", requestID),
			zap.String("org_id", orgID.String()),
			zap.Error(err))
		_ = utils.WriteNotFound(w, "Organization not found")
		return
	}

	_ = utils.WriteOK(w, org)
}

// HandleUpdateOrganization handles PATCH /api/v1/org
func (h *OrganizationHandler) HandleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	var req UpdateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	org, err := h.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		_ = utils.WriteNotFound(w, "Organization not found")
		return
	}

	if req.Name != nil {
		org.Name = *req.Name
	}

	if err := h.orgRepo.Update(ctx, org); err != nil {
		h.logger.Error("failed to update organization",
			zap.String("request_id", requestID),
			zap.String("org_id", orgID.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to update organization")
		return
	}

	h.logger.Info("organization updated",
		zap.String("request_id", requestID),
		zap.String("org_id", orgID.String()))

	_ = utils.WriteOK(w, org)
}
