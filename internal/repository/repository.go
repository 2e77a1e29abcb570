package repository

import (
	"context"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
// Lookups that find nothing return an error matching apperrors.ErrNotFound.
type UserRepository interface {
	// Save persists the user. An unpersisted user is inserted and the
	// returned copy carries the storage-assigned id; a persisted user is
	// updated in place.
	Save(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id int64) (domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// GetByPhone retrieves a user by their phone number.
	GetByPhone(ctx context.Context, phone string) (domain.User, error)
}

// OtpRepository defines the interface for one-time code persistence.
// Records disappear on their own when they outlive their expiry.
type OtpRepository interface {
	// Save persists the otp and returns a copy carrying the storage-assigned id.
	Save(ctx context.Context, otp domain.Otp) (domain.Otp, error)

	// GetByCode retrieves an otp by its code value.
	GetByCode(ctx context.Context, code string) (domain.Otp, error)

	// GetByDestination retrieves an otp by the address it was sent to.
	GetByDestination(ctx context.Context, destination string) (domain.Otp, error)

	// Delete removes an otp by id. It reports whether a record was actually
	// removed, so racing consumers can tell who won.
	Delete(ctx context.Context, id string) (bool, error)
}

// SessionRepository defines the interface for session persistence. Sessions
// are keyed by their refresh token value and expire with it.
type SessionRepository interface {
	// Save persists the session under its refresh token.
	Save(ctx context.Context, session domain.Session) error

	// GetByRefreshToken retrieves the session a refresh token belongs to.
	GetByRefreshToken(ctx context.Context, refreshToken string) (domain.Session, error)

	// Delete revokes the session behind the refresh token. It reports
	// whether a session was actually removed.
	Delete(ctx context.Context, refreshToken string) (bool, error)
}
