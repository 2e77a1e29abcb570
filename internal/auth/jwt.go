package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

// Claims represents the JWT claims for an access token. Identity attributes
// are embedded so downstream services and the OIDC layer can serve userinfo
// without a lookup.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues access and refresh tokens. Access tokens are signed
// JWTs; refresh tokens are opaque random values that only mean something to
// the session store.
type TokenManager struct {
	secret        []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenManager creates a token manager with the given secret and expiry
// durations. The access expiry is expected to be shorter than the refresh
// expiry; config validation enforces this.
func NewTokenManager(secret, issuer string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:        []byte(secret),
		issuer:        issuer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// AccessExpiry returns the configured access token lifetime.
func (m *TokenManager) AccessExpiry() time.Duration { return m.accessExpiry }

// RefreshExpiry returns the configured refresh token lifetime.
func (m *TokenManager) RefreshExpiry() time.Duration { return m.refreshExpiry }

// GenerateAccessToken creates a signed JWT access token carrying the user's
// identity attributes.
func (m *TokenManager) GenerateAccessToken(user domain.User) (domain.Token, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.accessExpiry)
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email.Value,
		Phone:     user.Phone.Value,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign access token: %w", err)
	}

	return domain.Token{Value: signedToken, ExpiresAt: expiresAt}, nil
}

// GenerateRefreshToken creates an opaque refresh token. The value carries no
// claims; the session store is the source of truth for what it grants.
func (m *TokenManager) GenerateRefreshToken() domain.Token {
	return domain.Token{
		Value:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(m.refreshExpiry),
	}
}

// ValidateAccessToken parses and validates an access token, returning the claims.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid access token claims")
	}

	return claims, nil
}
