package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/services/audit"
	"github.com/corporatepay/console-api/services/invite"
)

type mockInviteRepo struct {
	mock.Mock
}

func (m *mockInviteRepo) Create(ctx context.Context, inv *models.Invite) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *mockInviteRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invite), args.Error(1)
}

func (m *mockInviteRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Invite, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invite), args.Error(1)
}

func (m *mockInviteRepo) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.Invite, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invite), args.Error(1)
}

func (m *mockInviteRepo) Update(ctx context.Context, inv *models.Invite) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.User, error) {
	args := m.Called(ctx, orgID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.User, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockGroupRepo struct {
	mock.Mock
}

func (m *mockGroupRepo) Create(ctx context.Context, group *models.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *mockGroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *mockGroupRepo) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.Group, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Group), args.Error(1)
}

func (m *mockGroupRepo) Update(ctx context.Context, group *models.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *mockGroupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type passthroughTxManager struct{}

func (passthroughTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return nil, errors.New("not supported")
}

func (passthroughTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, nil)
}

func newInviteHandler(invites *mockInviteRepo, users *mockUserRepo) *InviteHandler {
	logger := zap.NewNop()
	svc := invite.NewService(invites, users, new(mockGroupRepo), passthroughTxManager{}, 72*time.Hour, logger)
	auditSvc := audit.NewService(&mockAuditRepo{}, logger)
	return NewInviteHandler(svc, auditSvc, logger)
}

func hashRawToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func tokenRequest(method, token, suffix string, body []byte) *http.Request {
	req := httptest.NewRequest(method, "/invites/"+token+suffix, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("token", token)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleValidateInvite_UnknownToken(t *testing.T) {
	invites := new(mockInviteRepo)
	h := newInviteHandler(invites, new(mockUserRepo))

	invites.On("GetByTokenHash", mock.Anything, mock.Anything).
		Return(nil, errors.New("invite not found"))

	rec := httptest.NewRecorder()
	h.HandleValidateInvite(rec, tokenRequest(http.MethodGet, "bogus", "", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleValidateInvite_ExpiredIsGone(t *testing.T) {
	invites := new(mockInviteRepo)
	h := newInviteHandler(invites, new(mockUserRepo))

	token := "expired-token"
	inv := models.NewInvite(uuid.New(), "ana@example.com", models.RoleMember, nil,
		uuid.New(), hashRawToken(token), -time.Hour)
	invites.On("GetByTokenHash", mock.Anything, hashRawToken(token)).Return(inv, nil)
	invites.On("Update", mock.Anything, inv).Return(nil)

	rec := httptest.NewRecorder()
	h.HandleValidateInvite(rec, tokenRequest(http.MethodGet, token, "", nil))

	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, models.InviteStatusExpired, inv.Status)
}

func TestHandleValidateInvite_PendingReturnsPrefill(t *testing.T) {
	invites := new(mockInviteRepo)
	h := newInviteHandler(invites, new(mockUserRepo))

	token := "good-token"
	inv := models.NewInvite(uuid.New(), "ana@example.com", models.RoleApprover, nil,
		uuid.New(), hashRawToken(token), 72*time.Hour)
	invites.On("GetByTokenHash", mock.Anything, hashRawToken(token)).Return(inv, nil)

	rec := httptest.NewRecorder()
	h.HandleValidateInvite(rec, tokenRequest(http.MethodGet, token, "", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ana@example.com")
	assert.Contains(t, rec.Body.String(), string(models.RoleApprover))
	assert.NotContains(t, rec.Body.String(), inv.TokenHash)
}

func TestHandleAcceptInvite_CreatesUser(t *testing.T) {
	invites := new(mockInviteRepo)
	users := new(mockUserRepo)
	h := newInviteHandler(invites, users)

	token := "accept-token"
	orgID := uuid.New()
	inv := models.NewInvite(orgID, "ana@example.com", models.RoleMember, nil,
		uuid.New(), hashRawToken(token), 72*time.Hour)
	invites.On("GetByTokenHash", mock.Anything, hashRawToken(token)).Return(inv, nil)
	invites.On("Update", mock.Anything, inv).Return(nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	body, _ := json.Marshal(AcceptInviteRequest{Name: "Ana Torres"})
	rec := httptest.NewRecorder()
	h.HandleAcceptInvite(rec, tokenRequest(http.MethodPost, token, "/accept", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.InviteStatusAccepted, inv.Status)
	users.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*models.User"))
}
