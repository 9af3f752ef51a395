package apikey

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/services"
)

// MockKeyRepository is a mock implementation of APIKeyRepository.
type MockKeyRepository struct {
	mock.Mock
}

func (m *MockKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockKeyRepository) GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	args := m.Called(ctx, keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockKeyRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.APIKey), args.Error(1)
}

func (m *MockKeyRepository) Update(ctx context.Context, key *models.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestCreate_RawKeyShownOnce(t *testing.T) {
	repo := new(MockKeyRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.APIKey")).Return(nil)

	result, err := svc.Create(ctx, uuid.New(), "ci-pipeline", uuid.New())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.RawKey, "cp_"))
	assert.Equal(t, hashKey(result.RawKey), result.Key.KeyHash)
	assert.Equal(t, result.RawKey[:10], result.Key.Prefix)
	assert.NotContains(t, result.Key.KeyHash, result.RawKey)
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	repo := new(MockKeyRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	rawKey := "cp_deadbeef"
	key := models.NewAPIKey(uuid.New(), "ci", hashKey(rawKey), "cp_deadbee", uuid.New())

	repo.On("GetByHash", ctx, hashKey(rawKey)).Return(key, nil)
	repo.On("Update", ctx, key).Return(nil)

	got, err := svc.Authenticate(ctx, rawKey)

	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)
	assert.NotNil(t, got.LastUsedAt)
}

func TestAuthenticate_RejectsRevokedKey(t *testing.T) {
	repo := new(MockKeyRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	rawKey := "cp_deadbeef"
	key := models.NewAPIKey(uuid.New(), "ci", hashKey(rawKey), "cp_deadbee", uuid.New())
	now := time.Now()
	key.RevokedAt = &now
	repo.On("GetByHash", ctx, hashKey(rawKey)).Return(key, nil)

	_, err := svc.Authenticate(ctx, rawKey)

	assert.ErrorIs(t, err, services.ErrAPIKeyRevoked)
}

func TestAuthenticate_RejectsUnknownOrMalformedKey(t *testing.T) {
	repo := new(MockKeyRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	repo.On("GetByHash", ctx, mock.Anything).Return(nil, errors.New("api key not found"))

	_, err := svc.Authenticate(ctx, "cp_unknown")
	assert.ErrorIs(t, err, services.ErrInvalidAPIKey)

	_, err = svc.Authenticate(ctx, "not-a-key")
	assert.ErrorIs(t, err, services.ErrInvalidAPIKey)
}

func TestRevoke_IsIdempotent(t *testing.T) {
	repo := new(MockKeyRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()
	orgID := uuid.New()

	key := models.NewAPIKey(orgID, "ci", "hash", "cp_abc", uuid.New())
	now := time.Now()
	key.RevokedAt = &now
	repo.On("GetByID", ctx, key.ID).Return(key, nil)

	err := svc.Revoke(ctx, orgID, key.ID)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "Update")
}
