// Package apikey implements the developer center's credentials: issuance,
// listing, revocation and authentication of API keys.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/services"
)

// keyPrefix marks raw keys so they are recognizable in configs and logs.
const keyPrefix = "cp_"

// Service manages API keys.
type Service struct {
	keys   repositories.APIKeyRepository
	logger *zap.Logger
}

// NewService creates an API key Service.
func NewService(keys repositories.APIKeyRepository, logger *zap.Logger) *Service {
	return &Service{keys: keys, logger: logger}
}

// CreateResult carries the stored record plus the raw key, shown exactly once.
type CreateResult struct {
	Key    *models.APIKey `json:"key"`
	RawKey string         `json:"raw_key"`
}

// Create issues a new key for the organization.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, name string, createdBy uuid.UUID) (*CreateResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.ErrInvalidInput.WithDetail("name", "required")
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, services.WrapInternal("failed to generate api key", err)
	}
	rawKey := keyPrefix + hex.EncodeToString(buf)

	key := models.NewAPIKey(orgID, name, hashKey(rawKey), displayPrefix(rawKey), createdBy)
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, services.WrapInternal("failed to store api key", err)
	}

	s.logger.Info("api key created",
		zap.String("key_id", key.ID.String()),
		zap.String("org_id", orgID.String()))
	return &CreateResult{Key: key, RawKey: rawKey}, nil
}

// List returns the organization's keys, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error) {
	keys, err := s.keys.GetByOrgID(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("failed to list api keys", err)
	}
	return keys, nil
}

// Revoke disables a key permanently.
func (s *Service) Revoke(ctx context.Context, orgID, keyID uuid.UUID) error {
	key, err := s.keys.GetByID(ctx, keyID)
	if err != nil {
		return services.ErrAPIKeyNotFound
	}
	if key.OrgID != orgID {
		return services.ErrOrgMismatch
	}
	if key.IsRevoked() {
		return nil
	}

	now := time.Now()
	key.RevokedAt = &now
	if err := s.keys.Update(ctx, key); err != nil {
		return services.WrapInternal("failed to revoke api key", err)
	}

	s.logger.Info("api key revoked", zap.String("key_id", keyID.String()))
	return nil
}

// Authenticate resolves a raw key to its record, rejecting unknown and
// revoked keys, and stamps last use.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	if !strings.HasPrefix(rawKey, keyPrefix) {
		return nil, services.ErrInvalidAPIKey
	}

	key, err := s.keys.GetByHash(ctx, hashKey(rawKey))
	if err != nil {
		return nil, services.ErrInvalidAPIKey
	}
	if key.IsRevoked() {
		return nil, services.ErrAPIKeyRevoked
	}

	now := time.Now()
	key.LastUsedAt = &now
	if err := s.keys.Update(ctx, key); err != nil {
		// Last-use bookkeeping must not block authentication.
		s.logger.Warn("failed to stamp api key last use",
			zap.String("key_id", key.ID.String()), zap.Error(err))
	}

	return key, nil
}

func hashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// displayPrefix keeps enough of the key for humans to tell records apart.
func displayPrefix(rawKey string) string {
	if len(rawKey) <= 10 {
		return rawKey
	}
	return rawKey[:10]
}
