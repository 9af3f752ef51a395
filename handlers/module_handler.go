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
	"github.com/corporatepay/console-api/services/modules"
	"github.com/corporatepay/console-api/utils"
)

// ToggleModuleRequest represents a request to toggle a module
type ToggleModuleRequest struct {
	Enabled bool `json:"enabled"`
}

// ModuleHandler handles module-settings HTTP requests
type ModuleHandler struct {
	moduleSvc *modules.Service
	auditSvc  *audit.Service
	logger    *zap.Logger
}

// NewModuleHandler creates a new ModuleHandler
func NewModuleHandler(moduleSvc *modules.Service, auditSvc *audit.Service, logger *zap.Logger) *ModuleHandler {
	return &ModuleHandler{
		moduleSvc: moduleSvc,
		auditSvc:  auditSvc,
		logger:    logger,
	}
}

// HandleListModules handles GET /api/v1/modules
func (h *ModuleHandler) HandleListModules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	settings, err := h.moduleSvc.List(ctx, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, settings)
}

// HandleToggleModule handles PUT /api/v1/modules/{module}
func (h *ModuleHandler) HandleToggleModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}
	actorID := middleware.GetActorIDFromContext(ctx)
	if actorID == nil {
		_ = utils.WriteForbidden(w, "Module changes require a user session")
		return
	}

	module := models.ConsoleModule(chi.URLParam(r, "module"))

	var req ToggleModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	setting, err := h.moduleSvc.Toggle(ctx, orgID, module, req.Enabled, *actorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, actorID, models.AuditActionModuleToggled,
		"module_setting", nil,
		map[string]interface{}{"module": string(module), "enabled": req.Enabled}, requestID)

	_ = utils.WriteOK(w, setting)
}
