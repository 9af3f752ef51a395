package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/services/audit"
	"github.com/corporatepay/console-api/services/chargeback"
)

// mockRuleRepo is a mock implementation of ChargebackRuleRepository.
type mockRuleRepo struct {
	mock.Mock
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *models.ChargebackRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *mockRuleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ChargebackRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChargebackRule), args.Error(1)
}

func (m *mockRuleRepo) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.ChargebackRule, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ChargebackRule), args.Error(1)
}

func (m *mockRuleRepo) Update(ctx context.Context, rule *models.ChargebackRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *mockRuleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockAuditRepo is a no-op audit sink.
type mockAuditRepo struct{}

func (m *mockAuditRepo) Insert(ctx context.Context, log *models.AuditLog) error { return nil }
func (m *mockAuditRepo) GetByOrgID(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

func newChargebackHandler(repo *mockRuleRepo) *ChargebackHandler {
	logger := zap.NewNop()
	svc := chargeback.NewService(repo, logger)
	auditSvc := audit.NewService(&mockAuditRepo{}, logger)
	return NewChargebackHandler(svc, auditSvc, logger)
}

func tenantRequest(method, target string, body []byte, orgID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := middleware.WithOrgID(req.Context(), orgID)
	actorID := uuid.New()
	ctx = middleware.WithActorID(ctx, &actorID)
	return req.WithContext(ctx)
}

func TestHandlePreview_SplitsMatchedAmount(t *testing.T) {
	repo := new(mockRuleRepo)
	h := newChargebackHandler(repo)
	orgID := uuid.New()

	eng := uuid.New()
	ops := uuid.New()
	rule := models.NewChargebackRule(orgID, 1, models.ChargebackMatchGroup, "engineering",
		[]models.ChargebackSplit{
			{CostCenterID: eng, Percent: 70},
			{CostCenterID: ops, Percent: 30},
		})
	repo.On("GetByOrgID", mock.Anything, orgID).Return([]*models.ChargebackRule{rule}, nil)

	body, _ := json.Marshal(PreviewRequest{
		TagType: models.ChargebackMatchGroup,
		TagKey:  "Engineering",
		Amount:  decimal.RequireFromString("1000000"),
	})

	rec := httptest.NewRecorder()
	h.HandlePreview(rec, tenantRequest(http.MethodPost, "/api/v1/chargeback/preview", body, orgID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "700000")
	assert.Contains(t, rec.Body.String(), "300000")
}

func TestHandlePreview_NoMatchIsNormalResult(t *testing.T) {
	repo := new(mockRuleRepo)
	h := newChargebackHandler(repo)
	orgID := uuid.New()

	repo.On("GetByOrgID", mock.Anything, orgID).Return([]*models.ChargebackRule{}, nil)

	body, _ := json.Marshal(PreviewRequest{
		TagType: models.ChargebackMatchProject,
		TagKey:  "apollo",
		Amount:  decimal.RequireFromString("500"),
	})

	rec := httptest.NewRecorder()
	h.HandlePreview(rec, tenantRequest(http.MethodPost, "/api/v1/chargeback/preview", body, orgID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"rule"`)
}

func TestHandleCreateRule_RejectsBadSplits(t *testing.T) {
	repo := new(mockRuleRepo)
	h := newChargebackHandler(repo)
	orgID := uuid.New()

	body, _ := json.Marshal(CreateRuleRequest{
		Priority:  1,
		MatchType: models.ChargebackMatchGroup,
		MatchKey:  "engineering",
		Splits: []models.ChargebackSplit{
			{CostCenterID: uuid.New(), Percent: 60},
			{CostCenterID: uuid.New(), Percent: 30},
		},
	})

	rec := httptest.NewRecorder()
	h.HandleCreateRule(rec, tenantRequest(http.MethodPost, "/api/v1/chargeback/rules", body, orgID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "Create")
}

func TestHandleListRules_RequiresTenant(t *testing.T) {
	repo := new(mockRuleRepo)
	h := newChargebackHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chargeback/rules", nil)
	rec := httptest.NewRecorder()
	h.HandleListRules(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
