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
	"github.com/corporatepay/console-api/services/invite"
	"github.com/corporatepay/console-api/utils"
)

// CreateInviteRequest represents a request to invite a member
type CreateInviteRequest struct {
	Email   string      `json:"email" validate:"required,email"`
	Role    models.Role `json:"role" validate:"required"`
	GroupID *uuid.UUID  `json:"group_id,omitempty"`
}

// AcceptInviteRequest represents the acceptance step of the invite wizard
type AcceptInviteRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// InvitePreviewResponse is the public prefill payload for the acceptance
// wizard. The token hash and inviter stay private.
type InvitePreviewResponse struct {
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	GroupID *uuid.UUID  `json:"group_id,omitempty"`
}

// InviteHandler handles invite HTTP requests
type InviteHandler struct {
	inviteSvc *invite.Service
	auditSvc  *audit.Service
	logger    *zap.Logger
}

// NewInviteHandler creates a new InviteHandler
func NewInviteHandler(inviteSvc *invite.Service, auditSvc *audit.Service, logger *zap.Logger) *InviteHandler {
	return &InviteHandler{
		inviteSvc: inviteSvc,
		auditSvc:  auditSvc,
		logger:    logger,
	}
}

// HandleListInvites handles GET /api/v1/invites
func (h *InviteHandler) HandleListInvites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	invites, err := h.inviteSvc.List(ctx, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, invites)
}

// HandleCreateInvite handles POST /api/v1/invites
func (h *InviteHandler) HandleCreateInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}
	actorID := middleware.GetActorIDFromContext(ctx)
	if actorID == nil {
		_ = utils.WriteForbidden(w, "Invites require a user session")
		return
	}

	var req CreateInviteRequest
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

	result, err := h.inviteSvc.Create(ctx, orgID, req.Email, req.Role, req.GroupID, *actorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, actorID, models.AuditActionInviteCreated,
		"invite", &result.Invite.ID,
		map[string]string{"email": result.Invite.Email}, requestID)

	// The raw token appears only in this response.
	_ = utils.WriteCreated(w, result)
}

// HandleRevokeInvite handles DELETE /api/v1/invites/{id}
func (h *InviteHandler) HandleRevokeInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	orgID := middleware.GetOrgIDFromContext(ctx)
	if orgID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing organization information")
		return
	}

	inviteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid invite ID format", nil)
		return
	}

	if err := h.inviteSvc.Revoke(ctx, orgID, inviteID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, orgID, middleware.GetActorIDFromContext(ctx),
		models.AuditActionInviteRevoked, "invite", &inviteID, nil, requestID)

	utils.WriteNoContent(w)
}

// HandleValidateInvite handles GET /invites/{token}. Public: the token itself
// is the credential.
func (h *InviteHandler) HandleValidateInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := chi.URLParam(r, "token")
	inv, err := h.inviteSvc.Validate(ctx, token)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, InvitePreviewResponse{
		Email:   inv.Email,
		Role:    inv.Role,
		GroupID: inv.GroupID,
	})
}

// HandleAcceptInvite handles POST /invites/{token}/accept. Public.
func (h *InviteHandler) HandleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	token := chi.URLParam(r, "token")

	var req AcceptInviteRequest
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

	user, err := h.inviteSvc.Accept(ctx, token, req.Name)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.auditSvc.Record(ctx, user.OrgID, &user.ID, models.AuditActionInviteAccepted,
		"user", &user.ID, map[string]string{"email": user.Email}, requestID)

	h.logger.Info("invite accepted",
		zap.String("request_id", requestID),
		zap.String("user_id", user.ID.String()))

	_ = utils.WriteCreated(w, user)
}
