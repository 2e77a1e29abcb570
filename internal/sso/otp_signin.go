package sso

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/message"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/otp"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/repository"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/session"
)

// OtpSignIn authenticates existing accounts with a one-time code delivered
// over the contact channel. Verify issues the code, Authenticate consumes it.
type OtpSignIn struct {
	channel   Channel
	users     repository.UserRepository
	otps      repository.OtpRepository
	generator otp.Generator
	issuer    TokenIssuer
	ttl       time.Duration
	logger    *slog.Logger
}

// NewOtpSignIn creates the otp sign-in strategy for a channel.
func NewOtpSignIn(
	channel Channel,
	users repository.UserRepository,
	otps repository.OtpRepository,
	generator otp.Generator,
	issuer TokenIssuer,
	ttl time.Duration,
	logger *slog.Logger,
) *OtpSignIn {
	return &OtpSignIn{
		channel:   channel,
		users:     users,
		otps:      otps,
		generator: generator,
		issuer:    issuer,
		ttl:       ttl,
		logger:    logger,
	}
}

// Verify sends a fresh sign-in code to the account owning the identity. At
// most one live code exists per destination: a still-valid earlier code
// rejects the request, an expired one is replaced.
func (s *OtpSignIn) Verify(ctx context.Context, identity string) error {
	if identity == "" {
		return apperrors.InvalidInput(fmt.Sprintf("%s is required", s.channel.Name))
	}

	user, err := s.channel.Lookup(ctx, identity)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	existing, err := s.otps.GetByDestination(ctx, identity)
	switch {
	case err == nil:
		if !existing.IsExpired(time.Now().UTC()) {
			return apperrors.Conflict("otp already issued, try later")
		}
	case errors.Is(err, apperrors.ErrNotFound):
		// No outstanding code, proceed.
	default:
		return fmt.Errorf("lookup existing otp: %w", err)
	}

	code, err := s.generator.Code()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	if err := s.channel.Notify(ctx, message.TypeOtp, message.Params{To: identity, Code: code}); err != nil {
		return err
	}

	if existing.ID() != "" {
		if _, err := s.otps.Delete(ctx, existing.ID()); err != nil {
			return fmt.Errorf("delete superseded otp: %w", err)
		}
	}

	fresh := domain.NewUserOtp(code, user.ID, identity, time.Now().UTC().Add(s.ttl))
	if _, err := s.otps.Save(ctx, fresh); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	s.logger.InfoContext(ctx, "sign-in otp issued",
		slog.Int64("user_id", user.ID),
		slog.String("channel", string(s.channel.Name)),
	)

	return nil
}

// Authenticate consumes a sign-in code and issues a session. The code must
// be owned by an account whose contact on this channel matches the presented
// identity; a matching code is deleted exactly once, so a concurrent replay
// loses with not-found.
func (s *OtpSignIn) Authenticate(ctx context.Context, creds Credentials, device session.Device) (domain.User, domain.TokenPair, error) {
	if creds.Identity == "" {
		return domain.User{}, domain.TokenPair{}, apperrors.InvalidInput(fmt.Sprintf("%s is required", s.channel.Name))
	}
	if creds.Secret == "" {
		return domain.User{}, domain.TokenPair{}, apperrors.InvalidInput("code is required")
	}

	found, err := s.otps.GetByCode(ctx, creds.Secret)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("lookup otp: %w", err)
	}

	userID := found.UserID()
	if userID == nil {
		s.logger.WarnContext(ctx, "registration otp presented at sign-in",
			slog.String("otp_id", found.ID()),
		)
		return domain.User{}, domain.TokenPair{}, apperrors.Unauthorized("incorrect login or otp")
	}

	if found.IsExpired(time.Now().UTC()) {
		if _, err := s.otps.Delete(ctx, found.ID()); err != nil {
			return domain.User{}, domain.TokenPair{}, fmt.Errorf("delete expired otp: %w", err)
		}
		return domain.User{}, domain.TokenPair{}, apperrors.Expired("otp is expired")
	}

	user, err := s.users.GetByID(ctx, *userID)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("lookup otp owner: %w", err)
	}

	if s.channel.Identity(user) != creds.Identity {
		// Code from a different channel or account; the otp stays live.
		return domain.User{}, domain.TokenPair{}, apperrors.Unauthorized("incorrect login or otp")
	}

	removed, err := s.otps.Delete(ctx, found.ID())
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("delete otp: %w", err)
	}
	if !removed {
		// A concurrent authenticate consumed the code first.
		return domain.User{}, domain.TokenPair{}, apperrors.NotFound("otp", found.ID())
	}

	pair, err := s.issuer.Issue(ctx, user, device)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("issue session: %w", err)
	}

	return user, pair, nil
}
