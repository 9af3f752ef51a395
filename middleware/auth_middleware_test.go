package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	m := NewAuthMiddleware(&stubValidator{}, zap.NewNop())
	called := false

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler(&called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	m := NewAuthMiddleware(&stubValidator{err: errors.New("bad signature")}, zap.NewNop())
	called := false

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler(&called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuth_ValidTokenAddsClaims(t *testing.T) {
	claims := &Claims{Sub: uuid.NewString(), OrgID: uuid.NewString(), Role: "admin"}
	m := NewAuthMiddleware(&stubValidator{claims: claims}, zap.NewNop())

	var got *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, claims, got)
}

func TestExtractTenant_ResolvesOrgAndActor(t *testing.T) {
	m := NewAuthMiddleware(&stubValidator{}, zap.NewNop())
	orgID := uuid.New()
	userID := uuid.New()
	claims := &Claims{Sub: userID.String(), OrgID: orgID.String(), Role: string(models.RoleMember)}

	var gotOrg uuid.UUID
	var gotActor *uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrg = GetOrgIDFromContext(r.Context())
		gotActor = GetActorIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), claims))
	rec := httptest.NewRecorder()
	m.ExtractTenant(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orgID, gotOrg)
	if assert.NotNil(t, gotActor) {
		assert.Equal(t, userID, *gotActor)
	}
}

func TestExtractTenant_IntegrationTokenHasNoActor(t *testing.T) {
	m := NewAuthMiddleware(&stubValidator{}, zap.NewNop())
	claims := &Claims{Sub: uuid.NewString(), OrgID: uuid.NewString(), Role: "integration"}

	var gotActor *uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = GetActorIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), claims))
	rec := httptest.NewRecorder()
	m.ExtractTenant(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, gotActor)
}

func TestRequireRole_Enforced(t *testing.T) {
	m := NewAuthMiddleware(&stubValidator{}, zap.NewNop())
	called := false

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), &Claims{Role: string(models.RoleMember)}))
	rec := httptest.NewRecorder()
	m.RequireRole(models.RoleOwner, models.RoleAdmin)(okHandler(&called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestRequireRole_Allowed(t *testing.T) {
	m := NewAuthMiddleware(&stubValidator{}, zap.NewNop())
	called := false

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), &Claims{Role: string(models.RoleAdmin)}))
	rec := httptest.NewRecorder()
	m.RequireRole(models.RoleOwner, models.RoleAdmin)(okHandler(&called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequirePolicyManager(t *testing.T) {
	tests := []struct {
		role       string
		wantStatus int
	}{
		{string(models.RoleOwner), http.StatusOK},
		{string(models.RoleAdmin), http.StatusOK},
		{string(models.RoleApprover), http.StatusForbidden},
		{string(models.RoleMember), http.StatusForbidden},
		{"integration", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			m := NewAuthMiddleware(&stubValidator{}, zap.NewNop())
			called := false

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithClaims(req.Context(), &Claims{Role: tt.role}))
			rec := httptest.NewRecorder()
			m.RequirePolicyManager(okHandler(&called)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestRequirePolicyManager_NoClaims(t *testing.T) {
	m := NewAuthMiddleware(&stubValidator{}, zap.NewNop())
	called := false

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	m.RequirePolicyManager(okHandler(&called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}
