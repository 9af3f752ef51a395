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

// UpdateUserRequest represents a request to change a member's role or group.
type UpdateUserRequest struct {
	Role    *models.Role `json:"role,omitempty"`
	GroupID *uuid.UUID   `json:"group_id,omitempty"`
}

// UserHandler handles member HTTP requests
type UserHandler struct {
	userRepo  repositories.UserRepository
	groupRepo repositories.GroupRepository
	auditSvc  *audit.Service
	logger    *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, groupRepo repositories.GroupRepository, auditSvc *audit.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userRepo:  userRepo,
		groupRepo: groupRepo,
		auditSvc:  auditSvc,
		logger:    logger,
	}
}

// HandleListUsers handles GET /api/v1/users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	users, err := h.userRepo.GetByOrgID(ctx, orgID)
	if err != nil {
		h.logger.Error("failed to list users",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve users")
		return
	}

	_ = utils.WriteOK(w, users)
}

// HandleGetCurrentUser handles GET /api/v1/users/me
func (h *UserHandler) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID := middleware.GetActorIDFromContext(ctx)
	if actorID == nil {
		_ = utils.WriteUnauthorized(w, "No user session")
		return
	}

	user, err := h.userRepo.GetByID(ctx, *actorID)
	if err != nil {
		_ = utils.WriteNotFound(w, "User not found")
		return
	}

	_ = utils.WriteOK(w, user)
}

// HandleGetUser handles GET /api/v1/users/{id}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	user, ok := h.fetchOwnedUser(w, r, orgID)
	if !ok {
		return
	}

	_ = utils.WriteOK(w, user)
}

// HandleUpdateUser handles PATCH /api/v1/users/{id}
func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	user, ok := h.fetchOwnedUser(w, r, orgID)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	roleChanged := false
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			_ = utils.WriteBadRequest(w, "Unknown role", map[string]interface{}{"role": string(*req.Role)})
			return
		}
		roleChanged = user.Role != *req.Role
		user.Role = *req.Role
	}
	if req.GroupID != nil {
		group, err := h.groupRepo.GetByID(ctx, *req.GroupID)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Unknown group", nil)
			return
		}
		if group.OrgID != orgID {
			_ = utils.WriteForbidden(w, "Access denied to this group")
			return
		}
		user.GroupID = req.GroupID
	}

	if err := h.userRepo.Update(ctx, user); err != nil {
		h.logger.Error("failed to update user",
			zap.String("request_id", requestID),
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to update user")
		return
	}

	if roleChanged {
		h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
			models.AuditActionRoleChanged, "user", &user.ID,
			map[string]string{"role": string(user.Role)}, requestID)
	}

	_ = utils.WriteOK(w, user)
}

func (h *UserHandler) fetchOwnedUser(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) (*models.User, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid user ID format", nil)
		return nil, false
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		_ = utils.WriteNotFound(w, "User not found")
		return nil, false
	}
	if user.OrgID != orgID {
		_ = utils.WriteForbidden(w, "Access denied to this user")
		return nil, false
	}
	return user, true
}
