package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/auth"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/repository"
)

// Device carries what we know about the device a session is issued to.
type Device struct {
	IPAddress string
}

// Issuer mints token pairs and persists the session they belong to. Every
// successful sign-in and registration goes through here, so a token pair
// never exists without a stored session.
type Issuer struct {
	tokens   *auth.TokenManager
	sessions repository.SessionRepository
	logger   *slog.Logger
}

// NewIssuer creates a session issuer.
func NewIssuer(tokens *auth.TokenManager, sessions repository.SessionRepository, logger *slog.Logger) *Issuer {
	return &Issuer{tokens: tokens, sessions: sessions, logger: logger}
}

// Issue creates a token pair for the user and stores the session keyed by
// the refresh token.
func (i *Issuer) Issue(ctx context.Context, user domain.User, device Device) (domain.TokenPair, error) {
	access, err := i.tokens.GenerateAccessToken(user)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}
	refresh := i.tokens.GenerateRefreshToken()

	s := domain.Session{
		UserID:    user.ID,
		Access:    access,
		Refresh:   refresh,
		IPAddress: device.IPAddress,
		CreatedAt: time.Now().UTC(),
	}

	if err := i.sessions.Save(ctx, s); err != nil {
		return domain.TokenPair{}, fmt.Errorf("save session: %w", err)
	}

	i.logger.InfoContext(ctx, "session issued",
		slog.Int64("user_id", user.ID),
		slog.String("ip", device.IPAddress),
	)

	return s.Pair(), nil
}

// Revoke ends the session behind a refresh token.
func (i *Issuer) Revoke(ctx context.Context, refreshToken string) error {
	removed, err := i.sessions.Delete(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !removed {
		return apperrors.Unauthorized("session not found")
	}

	i.logger.InfoContext(ctx, "session revoked")
	return nil
}
