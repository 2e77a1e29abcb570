package sso

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/session"
)

func newPasswordSignIn(users *mockUserRepository, issuer *mockIssuer) *PasswordSignIn {
	channel := newTestEmailChannel(users, &stubEmailSender{})
	return NewPasswordSignIn(channel, newTestHasher(), issuer, newTestLogger())
}

func TestPasswordSignIn_Authenticate_Success(t *testing.T) {
	users := new(mockUserRepository)
	issuer := new(mockIssuer)
	strategy := newPasswordSignIn(users, issuer)

	user := domain.NewUser("John", "Doe").
		WithID(7).
		WithEmail("john@example.com", true).
		WithPasswordHash(mustHash(t, "Secret123"))
	device := session.Device{IPAddress: "203.0.113.7"}
	pair := domain.TokenPair{AccessToken: "access", RefreshToken: "refresh"}

	users.On("GetByEmail", mock.Anything, "john@example.com").Return(user, nil)
	issuer.On("Issue", mock.Anything, user, device).Return(pair, nil)

	got, gotPair, err := strategy.Authenticate(context.Background(), Credentials{
		Identity: "john@example.com",
		Secret:   "Secret123",
	}, device)

	require.NoError(t, err)
	assert.Equal(t, user, got)
	assert.Equal(t, pair, gotPair)
	users.AssertExpectations(t)
	issuer.AssertExpectations(t)
}

func TestPasswordSignIn_Authenticate_UserNotFound(t *testing.T) {
	users := new(mockUserRepository)
	strategy := newPasswordSignIn(users, new(mockIssuer))

	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(notFoundUser())

	_, _, err := strategy.Authenticate(context.Background(), Credentials{
		Identity: "ghost@example.com",
		Secret:   "Secret123",
	}, session.Device{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPasswordSignIn_Authenticate_PasswordlessAccount(t *testing.T) {
	users := new(mockUserRepository)
	strategy := newPasswordSignIn(users, new(mockIssuer))

	user := domain.NewUser("John", "Doe").WithID(7).WithEmail("john@example.com", true)
	users.On("GetByEmail", mock.Anything, "john@example.com").Return(user, nil)

	_, _, err := strategy.Authenticate(context.Background(), Credentials{
		Identity: "john@example.com",
		Secret:   "Secret123",
	}, session.Device{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestPasswordSignIn_Authenticate_WrongPassword(t *testing.T) {
	users := new(mockUserRepository)
	issuer := new(mockIssuer)
	strategy := newPasswordSignIn(users, issuer)

	user := domain.NewUser("John", "Doe").
		WithID(7).
		WithEmail("john@example.com", true).
		WithPasswordHash(mustHash(t, "Secret123"))
	users.On("GetByEmail", mock.Anything, "john@example.com").Return(user, nil)

	_, _, err := strategy.Authenticate(context.Background(), Credentials{
		Identity: "john@example.com",
		Secret:   "wrong-password",
	}, session.Device{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	issuer.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

func TestPasswordSignIn_Authenticate_MissingInput(t *testing.T) {
	strategy := newPasswordSignIn(new(mockUserRepository), new(mockIssuer))

	_, _, err := strategy.Authenticate(context.Background(), Credentials{Secret: "Secret123"}, session.Device{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, _, err = strategy.Authenticate(context.Background(), Credentials{Identity: "john@example.com"}, session.Device{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPasswordSignIn_Verify(t *testing.T) {
	users := new(mockUserRepository)
	strategy := newPasswordSignIn(users, new(mockIssuer))

	users.On("GetByEmail", mock.Anything, "john@example.com").Return(domain.User{ID: 7}, nil)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(notFoundUser())

	assert.NoError(t, strategy.Verify(context.Background(), "john@example.com"))

	err := strategy.Verify(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
