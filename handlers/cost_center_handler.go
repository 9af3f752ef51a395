package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/services/audit"
	"github.com/corporatepay/console-api/utils"
)

// CreateCostCenterRequest represents a request to create a cost center
type CreateCostCenterRequest struct {
	Code string `json:"code" validate:"required,min=1,max=40"`
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// CostCenterHandler handles cost-center HTTP requests
type CostCenterHandler struct {
	costCenterRepo repositories.CostCenterRepository
	ruleRepo       repositories.ChargebackRuleRepository
	auditSvc       *audit.Service
	logger         *zap.Logger
}

// NewCostCenterHandler creates a new CostCenterHandler
func NewCostCenterHandler(costCenterRepo repositories.CostCenterRepository, ruleRepo repositories.ChargebackRuleRepository, auditSvc *audit.Service, logger *zap.Logger) *CostCenterHandler {
	return &CostCenterHandler{
		costCenterRepo: costCenterRepo,
		ruleRepo:       ruleRepo,
		auditSvc:       auditSvc,
		logger:         logger,
	}
}

// HandleListCostCenters handles GET /api/v1/cost-centers
func (h *CostCenterHandler) HandleListCostCenters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	costCenters, err := h.costCenterRepo.GetByOrgID(ctx, orgID)
	if err != nil {
		h.logger.Error("failed to list cost centers",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve cost centers")
		return
	}

	_ = utils.WriteOK(w, costCenters)
}

// HandleCreateCostCenter handles POST /api/v1/cost-centers
func (h *CostCenterHandler) HandleCreateCostCenter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	var req CreateCostCenterRequest
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

	cc := models.NewCostCenter(orgID, req.Code, req.Name)
	if err := h.costCenterRepo.Create(ctx, cc); err != nil {
		h.logger.Error("failed to create cost center",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to create cost center")
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionCostCenterCreated, "cost_center", &cc.ID,
		map[string]string{"code": cc.Code}, requestID)

	h.logger.Info("cost center created",
		zap.String("request_id", requestID),
		zap.String("cost_center_id", cc.ID.String()))

	_ = utils.WriteCreated(w, cc)
}

// HandleDeleteCostCenter handles DELETE /api/v1/cost-centers/{id}.
// A cost center referenced by any chargeback rule split cannot be deleted;
// the rule has to be removed or rewritten first.
func (h *CostCenterHandler) HandleDeleteCostCenter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	ccID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid cost center ID format", nil)
		return
	}

	cc, err := h.costCenterRepo.GetByID(ctx, ccID)
	if err != nil {
		_ = utils.WriteNotFound(w, "Cost center not found")
		return
	}
	if cc.OrgID != orgID {
		_ = utils.WriteForbidden(w, "Access denied to this cost center")
		return
	}

	rules, err := h.ruleRepo.GetByOrgID(ctx, orgID)
	if err != nil {
		h.logger.Error("failed to load chargeback rules",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to check cost center references")
		return
	}
	for _, rule := range rules {
		for _, split := range rule.Splits {
			if split.CostCenterID == ccID {
				_ = utils.WriteConflict(w, "Cost center is referenced by chargeback rules",
					map[string]interface{}{"rule_id": rule.ID.String()})
				return
			}
		}
	}

	if err := h.costCenterRepo.Delete(ctx, ccID); err != nil {
		h.logger.Error("failed to delete cost center",
			zap.String("request_id", requestID),
			zap.String("cost_center_id", ccID.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to delete cost center")
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionCostCenterDeleted, "cost_center", &ccID,
		map[string]string{"code": cc.Code}, requestID)

	utils.WriteNoContent(w)
}
