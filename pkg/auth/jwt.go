// Package auth issues and validates the bearer tokens that guard the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptySubject = errors.New("subject cannot be empty")
	ErrInvalidRole  = errors.New("invalid role")
	ErrShortSecret  = errors.New("secret must be at least 32 characters")
	ErrForbidden    = errors.New("insufficient role")
)

// Issuer is the iss claim of every token
const Issuer = "grc-explorer"

// Roles. A viewer explores the graph; an admin may also reload it.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

var roleRank = map[string]int{
	RoleViewer: 1,
	RoleAdmin:  2,
}

// Claims are the token claims
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Allows reports whether the claims grant at least role
func (c *Claims) Allows(role string) bool {
	return roleRank[c.Role] >= roleRank[role] && roleRank[role] > 0
}

// JWTManager signs and validates HS256 tokens
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewJWTManager creates a new JWT manager.
// Returns an error if the secret is shorter than 32 characters.
func NewJWTManager(secret string, tokenDuration time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	return &JWTManager{
		secretKey:     []byte(secret),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}, nil
}

// GenerateToken issues a token for subject with role
func (m *JWTManager) GenerateToken(subject, role string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	if roleRank[role] == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ValidateToken parses a token and returns its claims
func (m *JWTManager) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if roleRank[claims.Role] == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrInvalidRole)
	}
	return claims, nil
}

// Name returns the validator name for logging
func (m *JWTManager) Name() string {
	return "jwt-hs256"
}

// GetTokenDuration returns the configured token duration
func (m *JWTManager) GetTokenDuration() time.Duration {
	return m.tokenDuration
}

type claimsKey struct{}

// WithClaims returns a context carrying claims
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom returns the claims stored by WithClaims
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}
