package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/services/apikey"
	"github.com/corporatepay/console-api/services/audit"
	"github.com/corporatepay/console-api/utils"
)

// CreateAPIKeyRequest represents a request to create an API key
type CreateAPIKeyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// APIKeyHandler handles developer-center API key HTTP requests
type APIKeyHandler struct {
	keySvc   *apikey.Service
	auditSvc *audit.Service
	logger   *zap.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler
func NewAPIKeyHandler(keySvc *apikey.Service, auditSvc *audit.Service, logger *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		keySvc:   keySvc,
		auditSvc: auditSvc,
		logger:   logger,
	}
}

// HandleListAPIKeys handles GET /api/v1/developer/keys
func (h *APIKeyHandler) HandleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	keys, err := h.keySvc.List(ctx, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, keys)
}

// HandleCreateAPIKey handles POST /api/v1/developer/keys
func (h *APIKeyHandler) HandleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}
	actorID := middleware.GetActorIDFromContext(ctx)
	if actorID == nil {
		_ = utils.WriteForbidden(w, "Key creation requires a user session")
		return
	}

	var req CreateAPIKeyRequest
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

	result, err := h.keySvc.Create(ctx, orgID, req.Name, *actorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, actorID, models.AuditActionAPIKeyCreated,
		"api_key", &result.Key.ID,
		map[string]string{"name": result.Key.Name}, requestID)

	// The raw key appears only in this response.
	_ = utils.WriteCreated(w, result)
}

// HandleRevokeAPIKey handles DELETE /api/v1/developer/keys/{id}
func (h *APIKeyHandler) HandleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	keyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid key ID format", nil)
		return
	}

	if err := h.keySvc.Revoke(ctx, orgID, keyID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionAPIKeyRevoked, "api_key", &keyID, nil, requestID)

	utils.WriteNoContent(w)
}
