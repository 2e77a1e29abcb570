package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/auth"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

// --- Mock Session Repository ---

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Save(ctx context.Context, session domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (domain.Session, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *mockSessionRepository) Delete(ctx context.Context, refreshToken string) (bool, error) {
	args := m.Called(ctx, refreshToken)
	return args.Bool(0), args.Error(1)
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestIssuer(sessions *mockSessionRepository) *Issuer {
	tokens := auth.NewTokenManager("test-secret-key-for-unit-tests", "auth-service", 15*time.Minute, 720*time.Hour)
	return NewIssuer(tokens, sessions, newTestLogger())
}

func testUser() domain.User {
	return domain.User{
		ID:        7,
		FirstName: "John",
		LastName:  "Doe",
		Email:     domain.Contact{Value: "john@example.com", Verified: true},
	}
}

// --- Issue ---

func TestIssuer_Issue_Success(t *testing.T) {
	sessions := new(mockSessionRepository)
	issuer := newTestIssuer(sessions)

	var saved domain.Session
	sessions.On("Save", mock.Anything, mock.MatchedBy(func(s domain.Session) bool {
		saved = s
		return s.UserID == 7
	})).Return(nil)

	pair, err := issuer.Issue(context.Background(), testUser(), Device{IPAddress: "203.0.113.7"})

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, pair.AccessToken, saved.Access.Value)
	assert.Equal(t, pair.RefreshToken, saved.Refresh.Value)
	assert.Equal(t, "203.0.113.7", saved.IPAddress)
	assert.True(t, saved.Access.ExpiresAt.Before(saved.Refresh.ExpiresAt),
		"access token must expire before the refresh token")
	sessions.AssertExpectations(t)
}

func TestIssuer_Issue_SaveFails(t *testing.T) {
	sessions := new(mockSessionRepository)
	issuer := newTestIssuer(sessions)

	sessions.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	_, err := issuer.Issue(context.Background(), testUser(), Device{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
	sessions.AssertExpectations(t)
}

func TestIssuer_Issue_FreshTokensEveryTime(t *testing.T) {
	sessions := new(mockSessionRepository)
	issuer := newTestIssuer(sessions)
	sessions.On("Save", mock.Anything, mock.Anything).Return(nil)

	first, err := issuer.Issue(context.Background(), testUser(), Device{})
	require.NoError(t, err)
	second, err := issuer.Issue(context.Background(), testUser(), Device{})
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

// --- Revoke ---

func TestIssuer_Revoke_Success(t *testing.T) {
	sessions := new(mockSessionRepository)
	issuer := newTestIssuer(sessions)
	sessions.On("Delete", mock.Anything, "refresh-token").Return(true, nil)

	assert.NoError(t, issuer.Revoke(context.Background(), "refresh-token"))
	sessions.AssertExpectations(t)
}

func TestIssuer_Revoke_UnknownToken(t *testing.T) {
	sessions := new(mockSessionRepository)
	issuer := newTestIssuer(sessions)
	sessions.On("Delete", mock.Anything, "missing").Return(false, nil)

	err := issuer.Revoke(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestIssuer_Revoke_StoreError(t *testing.T) {
	sessions := new(mockSessionRepository)
	issuer := newTestIssuer(sessions)
	sessions.On("Delete", mock.Anything, "token").Return(false, errors.New("redis down"))

	err := issuer.Revoke(context.Background(), "token")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete session")
}
