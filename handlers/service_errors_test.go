package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/services"
)

func TestHandleServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", services.ErrPolicyNotFound, http.StatusNotFound},
		{"validation", services.ErrInvalidSplits, http.StatusBadRequest},
		{"unauthorized", services.ErrInvalidAPIKey, http.StatusUnauthorized},
		{"forbidden", services.ErrOrgMismatch, http.StatusForbidden},
		{"conflict", services.ErrModuleDependency, http.StatusConflict},
		{"gone", services.ErrInviteExpired, http.StatusGone},
		{"internal", services.WrapInternal("boom", errors.New("db down")), http.StatusInternalServerError},
		{"unknown", errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleServiceError(rec, tt.err, zap.NewNop())
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleServiceError_NilIsNoop(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleServiceError(rec, nil, zap.NewNop())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandleServiceError_InternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleServiceError(rec, services.WrapInternal("failed to save", errors.New("pq: relation missing")), zap.NewNop())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq: relation missing")
}
