package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret-key-for-unit-tests", "auth-service", 15*time.Minute, 720*time.Hour)
}

func testUser() domain.User {
	return domain.User{
		ID:        42,
		FirstName: "John",
		LastName:  "Doe",
		Email:     domain.Contact{Value: "john@example.com", Verified: true},
		Phone:     domain.Contact{Value: "+79991234567", Verified: false},
	}
}

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token.Value)

	claims, err := m.ValidateAccessToken(token.Value)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "john@example.com", claims.Email)
	assert.Equal(t, "+79991234567", claims.Phone)
	assert.Equal(t, "John", claims.FirstName)
	assert.Equal(t, "Doe", claims.LastName)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "auth-service", claims.Issuer)
}

func TestGenerateAccessToken_ExpirySet(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken(testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.ExpiresAt, 5*time.Second)
}

func TestGenerateRefreshToken_Opaque(t *testing.T) {
	m := newTestManager()

	token := m.GenerateRefreshToken()
	require.NotEmpty(t, token.Value)

	// A refresh token is not a JWT and must not validate as one.
	_, err := m.ValidateAccessToken(token.Value)
	assert.Error(t, err)
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	m := newTestManager()
	assert.NotEqual(t, m.GenerateRefreshToken().Value, m.GenerateRefreshToken().Value)
}

func TestAccessExpiry_ShorterThanRefresh(t *testing.T) {
	m := newTestManager()
	assert.Less(t, m.AccessExpiry(), m.RefreshExpiry())
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewTokenManager("another-secret-entirely", "auth-service", 15*time.Minute, 720*time.Hour)

	token, err := m.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token.Value)
	assert.Error(t, err)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	m := NewTokenManager("test-secret-key-for-unit-tests", "auth-service", -time.Minute, 720*time.Hour)

	token, err := m.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token.Value)
	assert.Error(t, err)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	m := newTestManager()
	_, err := m.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}
