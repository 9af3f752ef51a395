package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/models"
)

// RoleIntegration is the role carried by tokens minted from API keys. It is
// deliberately not a member role so integrations never act as a person.
const RoleIntegration = "integration"

// TokenIssuer mints and validates the short-lived JWTs used by the API.
// Tokens are signed with HS256 using a shared secret; implements
// middleware.TokenValidator.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewTokenIssuer creates a new TokenIssuer.
func NewTokenIssuer(secret string, issuer string, tokenTTL time.Duration, logger *zap.Logger) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// IssuedToken is the result of minting a token.
type IssuedToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueForAPIKey mints a token for an authenticated API key. The key ID is
// the subject, so the token can be traced back to the credential that
// produced it.
func (t *TokenIssuer) IssueForAPIKey(key *models.APIKey) (*IssuedToken, error) {
	return t.issue(key.ID.String(), key.OrgID.String(), RoleIntegration, key.Name)
}

// IssueForUser mints a token acting as the given user.
func (t *TokenIssuer) IssueForUser(user *models.User) (*IssuedToken, error) {
	return t.issue(user.ID.String(), user.OrgID.String(), string(user.Role), user.Name)
}

func (t *TokenIssuer) issue(sub, orgID, role, name string) (*IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(t.tokenTTL)

	claims := jwt.MapClaims{
		"sub":    sub,
		"org_id": orgID,
		"role":   role,
		"name":   name,
		"iss":    t.issuer,
		"iat":    now.Unix(),
		"exp":    expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	t.logger.Debug("token issued",
		zap.String("sub", sub),
		zap.String("role", role),
		zap.Time("expires_at", expiresAt))

	return &IssuedToken{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT and returns its claims. Implements
// middleware.TokenValidator.
func (t *TokenIssuer) ValidateToken(ctx context.Context, tokenString string) (*middleware.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	claims := &middleware.Claims{
		Sub:   stringClaim(mapClaims, "sub"),
		OrgID: stringClaim(mapClaims, "org_id"),
		Role:  stringClaim(mapClaims, "role"),
		Name:  stringClaim(mapClaims, "name"),
		Iss:   stringClaim(mapClaims, "iss"),
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.Exp = exp.Unix()
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.Iat = iat.Unix()
	}

	if claims.Sub == "" || claims.OrgID == "" {
		return nil, errors.New("token missing required claims")
	}

	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}
