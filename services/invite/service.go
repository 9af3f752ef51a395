// Package invite implements the membership invite wizard: token issuance,
// validation with lazy expiry, and transactional acceptance.
package invite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/services"
)

// Service manages invites.
type Service struct {
	invites repositories.InviteRepository
	users   repositories.UserRepository
	groups  repositories.GroupRepository
	txm     repositories.TransactionManager
	ttl     time.Duration
	logger  *zap.Logger
}

// NewService creates an invite Service. ttl bounds how long issued invites
// stay acceptable.
func NewService(
	invites repositories.InviteRepository,
	users repositories.UserRepository,
	groups repositories.GroupRepository,
	txm repositories.TransactionManager,
	ttl time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		invites: invites,
		users:   users,
		groups:  groups,
		txm:     txm,
		ttl:     ttl,
		logger:  logger,
	}
}

// CreateResult carries the stored invite plus the raw token. The token is
// shown exactly once; only its hash is persisted.
type CreateResult struct {
	Invite *models.Invite `json:"invite"`
	Token  string         `json:"token"`
}

// Create issues an invite for an email address. The email must not already
// belong to a member of the organization.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, email string, role models.Role, groupID *uuid.UUID, invitedBy uuid.UUID) (*CreateResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, services.ErrInvalidInput.WithDetail("email", "required")
	}
	if !models.ValidRole(role) {
		return nil, services.ErrInvalidRole.WithDetail("role", string(role))
	}
	if groupID != nil {
		group, err := s.groups.GetByID(ctx, *groupID)
		if err != nil {
			return nil, services.ErrGroupNotFound
		}
		if group.OrgID != orgID {
			return nil, services.ErrOrgMismatch
		}
	}
	if existing, err := s.users.GetByEmail(ctx, orgID, email); err == nil && existing != nil {
		return nil, services.ErrDuplicateEmail.WithDetail("email", email)
	}

	token, tokenHash, err := newToken()
	if err != nil {
		return nil, services.WrapInternal("failed to generate invite token", err)
	}

	invite := models.NewInvite(orgID, email, role, groupID, invitedBy, tokenHash, s.ttl)
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, services.WrapInternal("failed to create invite", err)
	}

	s.logger.Info("invite created",
		zap.String("invite_id", invite.ID.String()),
		zap.String("org_id", orgID.String()))
	return &CreateResult{Invite: invite, Token: token}, nil
}

// List returns the organization's invites, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]*models.Invite, error) {
	invites, err := s.invites.GetByOrgID(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("failed to list invites", err)
	}
	return invites, nil
}

// Validate looks up a pending invite by its raw token, for the acceptance
// wizard's prefill step. An invite past its deadline is marked expired on
// read and reported as gone.
func (s *Service) Validate(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := s.invites.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, services.ErrInviteNotFound
	}

	if invite.Status == models.InviteStatusPending && invite.IsExpired(time.Now()) {
		invite.Status = models.InviteStatusExpired
		invite.UpdatedAt = time.Now()
		if err := s.invites.Update(ctx, invite); err != nil {
			return nil, services.WrapInternal("failed to expire invite", err)
		}
	}

	switch invite.Status {
	case models.InviteStatusPending:
		return invite, nil
	case models.InviteStatusExpired:
		return nil, services.ErrInviteExpired
	default:
		return nil, services.ErrInviteNotPending.WithDetail("status", string(invite.Status))
	}
}

// Accept redeems an invite: the user is created and the invite marked
// accepted within one transaction, so a crash can never leave a member
// without a consumed invite or vice versa.
func (s *Service) Accept(ctx context.Context, token, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.ErrInvalidInput.WithDetail("name", "required")
	}

	invite, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(invite.OrgID, invite.Email, name, invite.Role)
	user.GroupID = invite.GroupID

	err = s.txm.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.users.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user from invite: %w", err)
		}

		now := time.Now()
		invite.Status = models.InviteStatusAccepted
		invite.AcceptedAt = &now
		invite.UpdatedAt = now
		if err := s.invites.Update(txCtx, invite); err != nil {
			return fmt.Errorf("failed to mark invite accepted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, services.WrapInternal("failed to accept invite", err)
	}

	s.logger.Info("invite accepted",
		zap.String("invite_id", invite.ID.String()),
		zap.String("user_id", user.ID.String()))
	return user, nil
}

// Revoke withdraws a pending invite.
func (s *Service) Revoke(ctx context.Context, orgID, inviteID uuid.UUID) error {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return services.ErrInviteNotFound
	}
	if invite.OrgID != orgID {
		return services.ErrOrgMismatch
	}
	if invite.Status != models.InviteStatusPending {
		return services.ErrInviteNotPending.WithDetail("status", string(invite.Status))
	}

	invite.Status = models.InviteStatusRevoked
	invite.UpdatedAt = time.Now()
	if err := s.invites.Update(ctx, invite); err != nil {
		return services.WrapInternal("failed to revoke invite", err)
	}

	s.logger.Info("invite revoked", zap.String("invite_id", inviteID.String()))
	return nil
}

// newToken returns a fresh raw token and its storable hash.
func newToken() (token, tokenHash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
