package sso

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/security"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/session"
)

// PasswordSignIn authenticates existing accounts with a password over one
// contact channel.
type PasswordSignIn struct {
	channel Channel
	hasher  security.Hasher
	issuer  TokenIssuer
	logger  *slog.Logger
}

// NewPasswordSignIn creates the password sign-in strategy for a channel.
func NewPasswordSignIn(channel Channel, hasher security.Hasher, issuer TokenIssuer, logger *slog.Logger) *PasswordSignIn {
	return &PasswordSignIn{
		channel: channel,
		hasher:  hasher,
		issuer:  issuer,
		logger:  logger,
	}
}

// Authenticate checks the password against the stored hash and issues a
// session. Lookup failures keep their not-found identity; only credential
// mismatches map to unauthorized.
func (s *PasswordSignIn) Authenticate(ctx context.Context, creds Credentials, device session.Device) (domain.User, domain.TokenPair, error) {
	if creds.Identity == "" {
		return domain.User{}, domain.TokenPair{}, apperrors.InvalidInput(fmt.Sprintf("%s is required", s.channel.Name))
	}
	if creds.Secret == "" {
		return domain.User{}, domain.TokenPair{}, apperrors.InvalidInput("password is required")
	}

	user, err := s.channel.Lookup(ctx, creds.Identity)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasPassword() {
		s.logger.WarnContext(ctx, "password sign-in attempted on passwordless account",
			slog.Int64("user_id", user.ID),
		)
		return domain.User{}, domain.TokenPair{}, apperrors.Unauthorized("password sign-in is not available for this account")
	}

	if !s.hasher.Compare(user.PasswordHash, creds.Secret) {
		return domain.User{}, domain.TokenPair{}, apperrors.Unauthorized("incorrect login or password")
	}

	pair, err := s.issuer.Issue(ctx, user, device)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("issue session: %w", err)
	}

	return user, pair, nil
}

// Verify reports whether an account exists for the identity. Used by
// pre-flight UI flows before showing a password prompt.
func (s *PasswordSignIn) Verify(ctx context.Context, identity string) error {
	if identity == "" {
		return apperrors.InvalidInput(fmt.Sprintf("%s is required", s.channel.Name))
	}

	if _, err := s.channel.Lookup(ctx, identity); err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	return nil
}
