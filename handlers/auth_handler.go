package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/corporatepay/console-api/auth"
	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/services/apikey"
	"github.com/corporatepay/console-api/utils"
)

// TokenRequest is the body of POST /auth/token: an API key exchanged for a
// short-lived JWT.
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// AuthHandler handles the token exchange
type AuthHandler struct {
	keySvc *apikey.Service
	issuer *auth.TokenIssuer
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(keySvc *apikey.Service, issuer *auth.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		keySvc: keySvc,
		issuer: issuer,
		logger: logger,
	}
}

// HandleToken handles POST /auth/token
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req TokenRequest
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

	key, err := h.keySvc.Authenticate(ctx, req.APIKey)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	issued, err := h.issuer.IssueForAPIKey(key)
	if err != nil {
		h.logger.Error("failed to issue token",
			zap.String("request_id", requestID),
			zap.String("key_id", key.ID.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	h.logger.Info("token exchanged",
		zap.String("request_id", requestID),
		zap.String("key_id", key.ID.String()),
		zap.String("org_id", key.OrgID.String()))

	_ = utils.WriteOK(w, issued)
}
