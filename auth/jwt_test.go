package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
)

func newIssuer(ttl time.Duration) *TokenIssuer {
	return NewTokenIssuer("test-secret", "console-api", ttl, zap.NewNop())
}

func TestIssueForAPIKey_RoundTrip(t *testing.T) {
	issuer := newIssuer(time.Hour)
	key := models.NewAPIKey(uuid.New(), "ci-pipeline", "hash", "cp_abc", uuid.New())

	issued, err := issuer.IssueForAPIKey(key)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", issued.TokenType)

	claims, err := issuer.ValidateToken(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, key.ID.String(), claims.Sub)
	assert.Equal(t, key.OrgID.String(), claims.OrgID)
	assert.Equal(t, RoleIntegration, claims.Role)
	assert.Equal(t, "console-api", claims.Iss)
}

func TestIssueForUser_CarriesRole(t *testing.T) {
	issuer := newIssuer(time.Hour)
	user := models.NewUser(uuid.New(), "ana@example.com", "Ana", models.RoleAdmin)

	issued, err := issuer.IssueForUser(user)
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Sub)
	assert.Equal(t, string(models.RoleAdmin), claims.Role)
	assert.Equal(t, "Ana", claims.Name)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	issuer := newIssuer(-time.Minute)
	key := models.NewAPIKey(uuid.New(), "ci", "hash", "cp_abc", uuid.New())

	issued, err := issuer.IssueForAPIKey(key)
	require.NoError(t, err)

	_, err = issuer.ValidateToken(context.Background(), issued.Token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	issuer := newIssuer(time.Hour)
	other := NewTokenIssuer("other-secret", "console-api", time.Hour, zap.NewNop())
	key := models.NewAPIKey(uuid.New(), "ci", "hash", "cp_abc", uuid.New())

	issued, err := issuer.IssueForAPIKey(key)
	require.NoError(t, err)

	_, err = other.ValidateToken(context.Background(), issued.Token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsWrongIssuer(t *testing.T) {
	issuer := newIssuer(time.Hour)
	foreign := NewTokenIssuer("test-secret", "someone-else", time.Hour, zap.NewNop())
	key := models.NewAPIKey(uuid.New(), "ci", "hash", "cp_abc", uuid.New())

	issued, err := foreign.IssueForAPIKey(key)
	require.NoError(t, err)

	_, err = issuer.ValidateToken(context.Background(), issued.Token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	issuer := newIssuer(time.Hour)

	_, err := issuer.ValidateToken(context.Background(), "not.a.token")
	assert.Error(t, err)
}
