package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/services/audit"
	"github.com/corporatepay/console-api/services/policy"
	"github.com/corporatepay/console-api/utils"
)

// UpdatePolicyRequest is the body of PUT /policy.
type UpdatePolicyRequest struct {
	Document models.PolicyDocument `json:"document"`
}

// UpsertOverrideRequest is the body of PUT /policy/overrides/{scope}/{id}.
type UpsertOverrideRequest struct {
	Override models.PolicyOverride `json:"override"`
}

// SimulateRequest is the body of POST /policy/simulate.
type SimulateRequest struct {
	GroupID *uuid.UUID             `json:"group_id,omitempty"`
	UserID  *uuid.UUID             `json:"user_id,omitempty"`
	Input   policy.SimulationInput `json:"input"`
}

// EffectiveResponse carries a resolved policy document.
type EffectiveResponse struct {
	Document models.PolicyDocument `json:"document"`
}

// SourcesResponse maps "section.field" to the scope that supplied the value.
type SourcesResponse struct {
	Sources map[string]policy.Source `json:"sources"`
}

// PolicyHandler handles policy-related HTTP requests
type PolicyHandler struct {
	policySvc *policy.Service
	auditSvc  *audit.Service
	logger    *zap.Logger
}

// NewPolicyHandler creates a new PolicyHandler
func NewPolicyHandler(policySvc *policy.Service, auditSvc *audit.Service, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{
		policySvc: policySvc,
		auditSvc:  auditSvc,
		logger:    logger,
	}
}

// HandleGetPolicy handles GET /api/v1/policy
func (h *PolicyHandler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	record, err := h.policySvc.GetOrgPolicy(ctx, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, record)
}

// HandleUpdatePolicy handles PUT /api/v1/policy
func (h *PolicyHandler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}
	actorID := middleware.GetActorIDFromContext(ctx)
	if actorID == nil {
		_ = utils.WriteForbidden(w, "Policy edits require a user session")
		return
	}

	var req UpdatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.policySvc.UpdateOrgPolicy(ctx, orgID, req.Document, *actorID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, actorID, models.AuditActionPolicyUpdated,
		"org_policy", &orgID, nil, requestID)

	h.logger.Info("org policy replaced",
		zap.String("request_id", requestID),
		zap.String("org_id", orgID.String()))

	record, err := h.policySvc.GetOrgPolicy(ctx, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, record)
}

// HandleGetOverride handles GET /api/v1/policy/overrides/{scope}/{id}
func (h *PolicyHandler) HandleGetOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scope, subjectID, ok := h.overrideTarget(w, r)
	if !ok {
		return
	}

	record, err := h.policySvc.GetOverride(ctx, scope, subjectID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, record)
}

// HandleUpsertOverride handles PUT /api/v1/policy/overrides/{scope}/{id}
func (h *PolicyHandler) HandleUpsertOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}
	actorID := middleware.GetActorIDFromContext(ctx)
	if actorID == nil {
		_ = utils.WriteForbidden(w, "Policy edits require a user session")
		return
	}

	scope, subjectID, ok := h.overrideTarget(w, r)
	if !ok {
		return
	}

	var req UpsertOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	record, err := h.policySvc.UpsertOverride(ctx, orgID, scope, subjectID, req.Override, *actorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, actorID, models.AuditActionOverrideUpserted,
		"policy_override", &subjectID,
		map[string]string{"scope": string(scope)}, requestID)

	_ = utils.WriteOK(w, record)
}

// HandleDeleteOverride handles DELETE /api/v1/policy/overrides/{scope}/{id}
func (h *PolicyHandler) HandleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	scope, subjectID, ok := h.overrideTarget(w, r)
	if !ok {
		return
	}

	if err := h.policySvc.DeleteOverride(ctx, scope, subjectID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionOverrideDeleted, "policy_override", &subjectID,
		map[string]string{"scope": string(scope)}, requestID)

	utils.WriteNoContent(w)
}

// HandleGetEffective handles GET /api/v1/policy/effective
func (h *PolicyHandler) HandleGetEffective(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	scope, ok := h.scopeFromQuery(w, r, orgID)
	if !ok {
		return
	}

	document, err := h.policySvc.Effective(ctx, scope)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, EffectiveResponse{Document: document})
}

// HandleGetSources handles GET /api/v1/policy/sources
func (h *PolicyHandler) HandleGetSources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	scope, ok := h.scopeFromQuery(w, r, orgID)
	if !ok {
		return
	}

	sources, err := h.policySvc.FieldSources(ctx, scope)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, SourcesResponse{Sources: sources})
}

// HandleSimulate handles POST /api/v1/policy/simulate
func (h *PolicyHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	scope := policy.Scope{OrgID: orgID, GroupID: req.GroupID, UserID: req.UserID}
	result, err := h.policySvc.SimulateScope(ctx, scope, req.Input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("simulation evaluated",
		zap.String("request_id", requestID),
		zap.String("kind", string(req.Input.Kind)),
		zap.String("status", string(result.Status)))

	_ = utils.WriteOK(w, result)
}

// overrideTarget parses the {scope} and {id} path params of override routes.
func (h *PolicyHandler) overrideTarget(w http.ResponseWriter, r *http.Request) (models.OverrideScope, uuid.UUID, bool) {
	scope := models.OverrideScope(chi.URLParam(r, "scope"))
	if scope != models.OverrideScopeGroup && scope != models.OverrideScopeUser {
		_ = utils.WriteBadRequest(w, "Scope must be group or user", nil)
		return "", uuid.Nil, false
	}

	subjectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid subject ID format", nil)
		return "", uuid.Nil, false
	}
	return scope, subjectID, true
}

// scopeFromQuery builds a resolution scope from optional group_id / user_id
// query parameters.
func (h *PolicyHandler) scopeFromQuery(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) (policy.Scope, bool) {
	scope := policy.Scope{OrgID: orgID}

	if groupIDStr := r.URL.Query().Get("group_id"); groupIDStr != "" {
		parsed, err := uuid.Parse(groupIDStr)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid group_id format", nil)
			return policy.Scope{}, false
		}
		scope.GroupID = &parsed
	}
	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		parsed, err := uuid.Parse(userIDStr)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid user_id format", nil)
			return policy.Scope{}, false
		}
		scope.UserID = &parsed
	}
	return scope, true
}
