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

// CreateGroupRequest represents a request to create a group
type CreateGroupRequest struct {
	Name         string     `json:"name" validate:"required,min=1,max=120"`
	CostCenterID *uuid.UUID `json:"cost_center_id,omitempty"`
}

// UpdateGroupRequest represents a request to update a group
type UpdateGroupRequest struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	CostCenterID *uuid.UUID `json:"cost_center_id,omitempty"`
}

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	groupRepo      repositories.GroupRepository
	costCenterRepo repositories.CostCenterRepository
	auditSvc       *audit.Service
	logger         *zap.Logger
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupRepo repositories.GroupRepository, costCenterRepo repositories.CostCenterRepository, auditSvc *audit.Service, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		groupRepo:      groupRepo,
		costCenterRepo: costCenterRepo,
		auditSvc:       auditSvc,
		logger:         logger,
	}
}

// HandleListGroups handles GET /api/v1/groups
func (h *GroupHandler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	groups, err := h.groupRepo.GetByOrgID(ctx, orgID)
	if err != nil {
		h.logger.Error("failed to list groups",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve groups")
		return
	}

	_ = utils.WriteOK(w, groups)
}

// HandleCreateGroup handles POST /api/v1/groups
func (h *GroupHandler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	var req CreateGroupRequest
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

	if req.CostCenterID != nil {
		if !h.costCenterBelongsToOrg(w, r, orgID, *req.CostCenterID) {
			return
		}
	}

	group := models.NewGroup(orgID, req.Name)
	group.CostCenterID = req.CostCenterID

	if err := h.groupRepo.Create(ctx, group); err != nil {
		h.logger.Error("failed to create group",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to create group")
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionGroupCreated, "group", &group.ID,
		map[string]string{"name": group.Name}, requestID)

	h.logger.Info("group created",
		zap.String("request_id", requestID),
		zap.String("group_id", group.ID.String()))

	_ = utils.WriteCreated(w, group)
}

// HandleGetGroup handles GET /api/v1/groups/{id}
func (h *GroupHandler) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	group, ok := h.fetchOwnedGroup(w, r, orgID)
	if !ok {
		return
	}

	_ = utils.WriteOK(w, group)
}

// HandleUpdateGroup handles PATCH /api/v1/groups/{id}
func (h *GroupHandler) HandleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	group, ok := h.fetchOwnedGroup(w, r, orgID)
	if !ok {
		return
	}

	var req UpdateGroupRequest
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

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.CostCenterID != nil {
		if !h.costCenterBelongsToOrg(w, r, orgID, *req.CostCenterID) {
			return
		}
		group.CostCenterID = req.CostCenterID
	}

	if err := h.groupRepo.Update(ctx, group); err != nil {
		h.logger.Error("failed to update group",
			zap.String("request_id", requestID),
			zap.String("group_id", group.ID.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to update group")
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionGroupUpdated, "group", &group.ID, nil, requestID)

	_ = utils.WriteOK(w, group)
}

// HandleDeleteGroup handles DELETE /api/v1/groups/{id}
func (h *GroupHandler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	group, ok := h.fetchOwnedGroup(w, r, orgID)
	if !ok {
		return
	}

	if err := h.groupRepo.Delete(ctx, group.ID); err != nil {
		h.logger.Error("failed to delete group",
			zap.String("request_id", requestID),
			zap.String("group_id", group.ID.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to delete group")
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionGroupDeleted, "group", &group.ID,
		map[string]string{"name": group.Name}, requestID)

	utils.WriteNoContent(w)
}

// fetchOwnedGroup parses {id}, loads the group and checks tenancy.
func (h *GroupHandler) fetchOwnedGroup(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) (*models.Group, bool) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid group ID format", nil)
		return nil, false
	}

	group, err := h.groupRepo.GetByID(r.Context(), groupID)
	if err != nil {
		_ = utils.WriteNotFound(w, "Group not found")
		return nil, false
	}
	if group.OrgID != orgID {
		_ = utils.WriteForbidden(w, "Access denied to this group")
		return nil, false
	}
	return group, true
}

func (h *GroupHandler) costCenterBelongsToOrg(w http.ResponseWriter, r *http.Request, orgID, costCenterID uuid.UUID) bool {
	cc, err := h.costCenterRepo.GetByID(r.Context(), costCenterID)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Unknown cost center", nil)
		return false
	}
	if cc.OrgID != orgID {
		_ = utils.WriteForbidden(w, "Access denied to this cost center")
		return false
	}
	return true
}
