package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/services/audit"
	"github.com/corporatepay/console-api/utils"
)

// AuditHandler handles governance-trail HTTP requests
type AuditHandler struct {
	auditSvc *audit.Service
	logger   *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditSvc *audit.Service, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditSvc: auditSvc,
		logger:   logger,
	}
}

// HandleListAuditLogs handles GET /api/v1/audit?limit=&offset=
func (h *AuditHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := h.auditSvc.List(ctx, orgID, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, logs)
}
