package invite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/services"
)

// MockInviteRepository is a mock implementation of InviteRepository.
type MockInviteRepository struct {
	mock.Mock
}

func (m *MockInviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockInviteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invite), args.Error(1)
}

func (m *MockInviteRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Invite, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invite), args.Error(1)
}

func (m *MockInviteRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.Invite, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invite), args.Error(1)
}

func (m *MockInviteRepository) Update(ctx context.Context, invite *models.Invite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.User, error) {
	args := m.Called(ctx, orgID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.User, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockGroupRepository is a mock implementation of GroupRepository.
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Create(ctx context.Context, group *models.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockGroupRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.Group, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Group), args.Error(1)
}

func (m *MockGroupRepository) Update(ctx context.Context, group *models.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return nil, nil
}

func (passthroughTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, nil)
}

type fixture struct {
	invites *MockInviteRepository
	users   *MockUserRepository
	groups  *MockGroupRepository
	svc     *Service
}

func newFixture() *fixture {
	f := &fixture{
		invites: new(MockInviteRepository),
		users:   new(MockUserRepository),
		groups:  new(MockGroupRepository),
	}
	f.svc = NewService(f.invites, f.users, f.groups, passthroughTxManager{}, 72*time.Hour, zap.NewNop())
	return f
}

func TestCreate_StoresOnlyTokenHash(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgID := uuid.New()

	f.users.On("GetByEmail", ctx, orgID, "new@example.com").Return(nil, errors.New("user not found"))
	f.invites.On("Create", ctx, mock.AnythingOfType("*models.Invite")).Return(nil)

	result, err := f.svc.Create(ctx, orgID, "New@Example.com", models.RoleMember, nil, uuid.New())

	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEqual(t, result.Token, result.Invite.TokenHash)

	sum := sha256.Sum256([]byte(result.Token))
	assert.Equal(t, hex.EncodeToString(sum[:]), result.Invite.TokenHash)
	assert.Equal(t, "new@example.com", result.Invite.Email)
	assert.Equal(t, models.InviteStatusPending, result.Invite.Status)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), result.Invite.ExpiresAt, time.Minute)
}

func TestCreate_RejectsExistingMember(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgID := uuid.New()

	existing := models.NewUser(orgID, "taken@example.com", "Taken", models.RoleMember)
	f.users.On("GetByEmail", ctx, orgID, "taken@example.com").Return(existing, nil)

	_, err := f.svc.Create(ctx, orgID, "taken@example.com", models.RoleMember, nil, uuid.New())

	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
	f.invites.AssertNotCalled(t, "Create")
}

func TestCreate_RejectsUnknownRole(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), uuid.New(), "a@example.com", "superuser", nil, uuid.New())

	assert.ErrorIs(t, err, services.ErrInvalidRole)
}

func TestValidate_UnknownToken(t *testing.T) {
	f := newFixture()
	f.invites.On("GetByTokenHash", mock.Anything, mock.Anything).Return(nil, errors.New("invite not found"))

	_, err := f.svc.Validate(context.Background(), "nope")

	assert.ErrorIs(t, err, services.ErrInviteNotFound)
}

func TestValidate_ExpiresLazilyOnRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	invite := models.NewInvite(uuid.New(), "late@example.com", models.RoleMember, nil, uuid.New(), hashToken("tok"), time.Hour)
	invite.ExpiresAt = time.Now().Add(-time.Hour)

	f.invites.On("GetByTokenHash", ctx, hashToken("tok")).Return(invite, nil)
	f.invites.On("Update", ctx, invite).Return(nil)

	_, err := f.svc.Validate(ctx, "tok")

	assert.ErrorIs(t, err, services.ErrInviteExpired)
	assert.Equal(t, models.InviteStatusExpired, invite.Status)
	f.invites.AssertExpectations(t)
}

func TestAccept_CreatesUserAndConsumesInvite(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgID := uuid.New()
	groupID := uuid.New()

	invite := models.NewInvite(orgID, "join@example.com", models.RoleApprover, &groupID, uuid.New(), hashToken("tok"), time.Hour)
	f.invites.On("GetByTokenHash", ctx, hashToken("tok")).Return(invite, nil)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	f.invites.On("Update", mock.Anything, invite).Return(nil)

	user, err := f.svc.Accept(ctx, "tok", "Joiner")

	require.NoError(t, err)
	assert.Equal(t, orgID, user.OrgID)
	assert.Equal(t, "join@example.com", user.Email)
	assert.Equal(t, models.RoleApprover, user.Role)
	require.NotNil(t, user.GroupID)
	assert.Equal(t, groupID, *user.GroupID)
	assert.Equal(t, models.InviteStatusAccepted, invite.Status)
	assert.NotNil(t, invite.AcceptedAt)
}

func TestAccept_RevokedInvite(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	invite := models.NewInvite(uuid.New(), "gone@example.com", models.RoleMember, nil, uuid.New(), hashToken("tok"), time.Hour)
	invite.Status = models.InviteStatusRevoked
	f.invites.On("GetByTokenHash", ctx, hashToken("tok")).Return(invite, nil)

	_, err := f.svc.Accept(ctx, "tok", "Anyone")

	assert.ErrorIs(t, err, services.ErrInviteNotPending)
	f.users.AssertNotCalled(t, "Create")
}

func TestRevoke_OnlyPendingInvites(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgID := uuid.New()

	invite := models.NewInvite(orgID, "done@example.com", models.RoleMember, nil, uuid.New(), hashToken("tok"), time.Hour)
	invite.Status = models.InviteStatusAccepted
	f.invites.On("GetByID", ctx, invite.ID).Return(invite, nil)

	err := f.svc.Revoke(ctx, orgID, invite.ID)

	assert.ErrorIs(t, err, services.ErrInviteNotPending)
}

func TestRevoke_ChecksTenancy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	invite := models.NewInvite(uuid.New(), "other@example.com", models.RoleMember, nil, uuid.New(), hashToken("tok"), time.Hour)
	f.invites.On("GetByID", ctx, invite.ID).Return(invite, nil)

	err := f.svc.Revoke(ctx, uuid.New(), invite.ID)

	assert.ErrorIs(t, err, services.ErrOrgMismatch)
}
