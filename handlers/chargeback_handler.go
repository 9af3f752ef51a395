package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/services/audit"
	"github.com/corporatepay/console-api/services/chargeback"
	"github.com/corporatepay/console-api/utils"
)

// CreateRuleRequest represents a request to create a chargeback rule
type CreateRuleRequest struct {
	Priority  int                        `json:"priority" validate:"gte=0"`
	MatchType models.ChargebackMatchType `json:"match_type" validate:"required"`
	MatchKey  string                     `json:"match_key" validate:"required"`
	Splits    []models.ChargebackSplit   `json:"splits" validate:"required,min=1"`
	Enabled   *bool                      `json:"enabled,omitempty"`
}

// UpdateRuleRequest represents a request to update a chargeback rule
type UpdateRuleRequest struct {
	Priority  *int                        `json:"priority,omitempty" validate:"omitempty,gte=0"`
	MatchType *models.ChargebackMatchType `json:"match_type,omitempty"`
	MatchKey  *string                     `json:"match_key,omitempty"`
	Splits    *[]models.ChargebackSplit   `json:"splits,omitempty"`
	Enabled   *bool                       `json:"enabled,omitempty"`
}

// PreviewRequest represents a chargeback preview: which rule would a tagged
// amount hit, and how would it split.
type PreviewRequest struct {
	TagType models.ChargebackMatchType `json:"tag_type" validate:"required"`
	TagKey  string                     `json:"tag_key" validate:"required"`
	Amount  decimal.Decimal            `json:"amount"`
}

// ChargebackHandler handles chargeback rule HTTP requests
type ChargebackHandler struct {
	chargebackSvc *chargeback.Service
	auditSvc      *audit.Service
	logger        *zap.Logger
}

// NewChargebackHandler creates a new ChargebackHandler
func NewChargebackHandler(chargebackSvc *chargeback.Service, auditSvc *audit.Service, logger *zap.Logger) *ChargebackHandler {
	return &ChargebackHandler{
		chargebackSvc: chargebackSvc,
		auditSvc:      auditSvc,
		logger:        logger,
	}
}

// HandleListRules handles GET /api/v1/chargeback/rules
func (h *ChargebackHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	rules, err := h.chargebackSvc.ListRules(ctx, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, rules)
}

// HandleCreateRule handles POST /api/v1/chargeback/rules
func (h *ChargebackHandler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	var req CreateRuleRequest
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

	rule := models.NewChargebackRule(orgID, req.Priority, req.MatchType, req.MatchKey, req.Splits)
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := h.chargebackSvc.CreateRule(ctx, rule); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionRuleCreated, "chargeback_rule", &rule.ID,
		map[string]string{"match_type": string(rule.MatchType), "match_key": rule.MatchKey}, requestID)

	_ = utils.WriteCreated(w, rule)
}

// HandleUpdateRule handles PATCH /api/v1/chargeback/rules/{id}
func (h *ChargebackHandler) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	ruleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid rule ID format", nil)
		return
	}

	var req UpdateRuleRequest
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

	rule, err := h.chargebackSvc.GetRule(ctx, orgID, ruleID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.MatchType != nil {
		rule.MatchType = *req.MatchType
	}
	if req.MatchKey != nil {
		rule.MatchKey = *req.MatchKey
	}
	if req.Splits != nil {
		rule.Splits = *req.Splits
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := h.chargebackSvc.UpdateRule(ctx, orgID, rule); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionRuleUpdated, "chargeback_rule", &rule.ID, nil, requestID)

	_ = utils.WriteOK(w, rule)
}

// HandleDeleteRule handles DELETE /api/v1/chargeback/rules/{id}
func (h *ChargebackHandler) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	ruleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid rule ID format", nil)
		return
	}

	if err := h.chargebackSvc.DeleteRule(ctx, orgID, ruleID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionRuleDeleted, "chargeback_rule", &ruleID, nil, requestID)

	utils.WriteNoContent(w)
}

// HandlePreview handles POST /api/v1/chargeback/preview
func (h *ChargebackHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	var req PreviewRequest
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

	result, err := h.chargebackSvc.Preview(ctx, orgID, req.TagType, req.TagKey, req.Amount)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}
