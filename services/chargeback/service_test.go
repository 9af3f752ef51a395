package chargeback

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/services"
)

// MockRuleRepository is a mock implementation of ChargebackRuleRepository.
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) Create(ctx context.Context, rule *models.ChargebackRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChargebackRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChargebackRule), args.Error(1)
}

func (m *MockRuleRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.ChargebackRule, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ChargebackRule), args.Error(1)
}

func (m *MockRuleRepository) Update(ctx context.Context, rule *models.ChargebackRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func splits(percents ...int64) []models.ChargebackSplit {
	out := make([]models.ChargebackSplit, len(percents))
	for i, p := range percents {
		out[i] = models.ChargebackSplit{CostCenterID: uuid.New(), Percent: p}
	}
	return out
}

func TestMatch_LowestPriorityWins(t *testing.T) {
	orgID := uuid.New()
	low := models.NewChargebackRule(orgID, 1, models.ChargebackMatchGroup, "sales", splits(100))
	high := models.NewChargebackRule(orgID, 5, models.ChargebackMatchGroup, "sales", splits(100))

	got := Match([]*models.ChargebackRule{high, low}, models.ChargebackMatchGroup, "sales")

	require.NotNil(t, got)
	assert.Equal(t, low.ID, got.ID)
}

func TestMatch_TiesKeepOriginalOrder(t *testing.T) {
	orgID := uuid.New()
	first := models.NewChargebackRule(orgID, 2, models.ChargebackMatchProject, "apollo", splits(100))
	second := models.NewChargebackRule(orgID, 2, models.ChargebackMatchProject, "apollo", splits(100))

	got := Match([]*models.ChargebackRule{first, second}, models.ChargebackMatchProject, "apollo")

	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
}

func TestMatch_KeyIsCaseInsensitive(t *testing.T) {
	rule := models.NewChargebackRule(uuid.New(), 0, models.ChargebackMatchGroup, "Sales", splits(100))

	assert.NotNil(t, Match([]*models.ChargebackRule{rule}, models.ChargebackMatchGroup, "SALES"))
	assert.Nil(t, Match([]*models.ChargebackRule{rule}, models.ChargebackMatchProject, "Sales"))
}

func TestMatch_SkipsDisabledAndReturnsNilWhenNoneMatch(t *testing.T) {
	rule := models.NewChargebackRule(uuid.New(), 0, models.ChargebackMatchGroup, "sales", splits(100))
	rule.Enabled = false

	assert.Nil(t, Match([]*models.ChargebackRule{rule}, models.ChargebackMatchGroup, "sales"))
	assert.Nil(t, Match(nil, models.ChargebackMatchGroup, "sales"))
}

func TestSplitAmount_RoundsHalfUpPerSplit(t *testing.T) {
	rule := models.NewChargebackRule(uuid.New(), 0, models.ChargebackMatchGroup, "ops", splits(33, 33, 34))

	allocations := SplitAmount(decimal.NewFromInt(100), rule)

	require.Len(t, allocations, 3)
	assert.True(t, allocations[0].Amount.Equal(decimal.NewFromInt(33)))
	assert.True(t, allocations[1].Amount.Equal(decimal.NewFromInt(33)))
	assert.True(t, allocations[2].Amount.Equal(decimal.NewFromInt(34)))
	assert.True(t, SplitDrift(decimal.NewFromInt(100), allocations).IsZero())
}

func TestSplitAmount_DriftIsPreservedNotCorrected(t *testing.T) {
	rule := models.NewChargebackRule(uuid.New(), 0, models.ChargebackMatchGroup, "ops", splits(50, 50))
	amount := decimal.RequireFromString("100.01")

	allocations := SplitAmount(amount, rule)

	// 50.005 rounds half-up to 50.01 on both splits: the parts exceed the whole.
	require.Len(t, allocations, 2)
	assert.True(t, allocations[0].Amount.Equal(decimal.RequireFromString("50.01")))
	assert.True(t, allocations[1].Amount.Equal(decimal.RequireFromString("50.01")))
	assert.True(t, SplitDrift(amount, allocations).Equal(decimal.RequireFromString("0.01")))
}

func TestValidateRule(t *testing.T) {
	orgID := uuid.New()

	tests := []struct {
		name    string
		mutate  func(*models.ChargebackRule)
		wantErr error
	}{
		{"valid", nil, nil},
		{"splits under 100", func(r *models.ChargebackRule) { r.Splits = splits(60, 30) }, services.ErrInvalidSplits},
		{"splits over 100", func(r *models.ChargebackRule) { r.Splits = splits(60, 50) }, services.ErrInvalidSplits},
		{"no splits", func(r *models.ChargebackRule) { r.Splits = nil }, services.ErrInvalidSplits},
		{"zero percent", func(r *models.ChargebackRule) { r.Splits = splits(0, 100) }, services.ErrInvalidSplits},
		{"missing cost center", func(r *models.ChargebackRule) {
			r.Splits = []models.ChargebackSplit{{Percent: 100}}
		}, services.ErrInvalidSplits},
		{"empty match key", func(r *models.ChargebackRule) { r.MatchKey = "  " }, services.ErrInvalidMatch},
		{"unknown match type", func(r *models.ChargebackRule) { r.MatchType = "vendor" }, services.ErrInvalidMatch},
		{"negative priority", func(r *models.ChargebackRule) { r.Priority = -1 }, services.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := models.NewChargebackRule(orgID, 1, models.ChargebackMatchGroup, "sales", splits(70, 30))
			if tt.mutate != nil {
				tt.mutate(rule)
			}
			err := ValidateRule(rule)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestService_CreateRuleRejectsInvalidSplits(t *testing.T) {
	repo := new(MockRuleRepository)
	svc := NewService(repo, zap.NewNop())

	rule := models.NewChargebackRule(uuid.New(), 1, models.ChargebackMatchGroup, "sales", splits(99))
	err := svc.CreateRule(context.Background(), rule)

	assert.ErrorIs(t, err, services.ErrInvalidSplits)
	repo.AssertNotCalled(t, "Create")
}

func TestService_Preview(t *testing.T) {
	repo := new(MockRuleRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()
	orgID := uuid.New()

	rule := models.NewChargebackRule(orgID, 1, models.ChargebackMatchGroup, "sales", splits(70, 30))
	repo.On("GetByOrgID", ctx, orgID).Return([]*models.ChargebackRule{rule}, nil)

	result, err := svc.Preview(ctx, orgID, models.ChargebackMatchGroup, "Sales", decimal.NewFromInt(1_000_000))

	require.NoError(t, err)
	require.NotNil(t, result.Rule)
	require.Len(t, result.Allocations, 2)
	assert.True(t, result.Allocations[0].Amount.Equal(decimal.NewFromInt(700_000)))
	assert.True(t, result.Allocations[1].Amount.Equal(decimal.NewFromInt(300_000)))
	assert.True(t, result.Drift.IsZero())
}

func TestService_PreviewNoMatchIsNotAnError(t *testing.T) {
	repo := new(MockRuleRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()
	orgID := uuid.New()

	repo.On("GetByOrgID", ctx, orgID).Return([]*models.ChargebackRule{}, nil)

	result, err := svc.Preview(ctx, orgID, models.ChargebackMatchPurpose, "travel", decimal.NewFromInt(100))

	require.NoError(t, err)
	assert.Nil(t, result.Rule)
	assert.Empty(t, result.Allocations)
}
