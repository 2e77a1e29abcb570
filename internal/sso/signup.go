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
	"github.com/ilKhr/simple-phone-and-email-auth/internal/security"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/session"
)

// OtpSignUp registers new accounts over a contact channel. Verify issues a
// code proving control of the destination; Register consumes the code,
// creates the account with the contact pre-verified, and opens a session.
type OtpSignUp struct {
	channel   Channel
	users     repository.UserRepository
	otps      repository.OtpRepository
	generator otp.Generator
	hasher    security.Hasher
	issuer    TokenIssuer
	ttl       time.Duration
	logger    *slog.Logger
}

// NewOtpSignUp creates the sign-up strategy for a channel.
func NewOtpSignUp(
	channel Channel,
	users repository.UserRepository,
	otps repository.OtpRepository,
	generator otp.Generator,
	hasher security.Hasher,
	issuer TokenIssuer,
	ttl time.Duration,
	logger *slog.Logger,
) *OtpSignUp {
	return &OtpSignUp{
		channel:   channel,
		users:     users,
		otps:      otps,
		generator: generator,
		hasher:    hasher,
		issuer:    issuer,
		ttl:       ttl,
		logger:    logger,
	}
}

// Verify issues a registration code to an unclaimed destination. A
// destination with an account is rejected, as is one with a still-valid
// earlier code. Nothing is persisted unless the message went out.
func (s *OtpSignUp) Verify(ctx context.Context, destination string) error {
	if destination == "" {
		return apperrors.InvalidInput(fmt.Sprintf("%s is required", s.channel.Name))
	}

	_, err := s.channel.Lookup(ctx, destination)
	switch {
	case err == nil:
		return apperrors.Conflict(fmt.Sprintf("this %s is already used", s.channel.Name))
	case errors.Is(err, apperrors.ErrNotFound):
		// Destination is free, proceed.
	default:
		return fmt.Errorf("lookup user: %w", err)
	}

	existing, err := s.otps.GetByDestination(ctx, destination)
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

	if err := s.channel.Notify(ctx, message.TypeOtp, message.Params{To: destination, Code: code}); err != nil {
		return err
	}

	if existing.ID() != "" {
		if _, err := s.otps.Delete(ctx, existing.ID()); err != nil {
			return fmt.Errorf("delete superseded otp: %w", err)
		}
	}

	fresh := domain.NewOtp(code, destination, time.Now().UTC().Add(s.ttl))
	if _, err := s.otps.Save(ctx, fresh); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	s.logger.InfoContext(ctx, "sign-up otp issued",
		slog.String("channel", string(s.channel.Name)),
	)

	return nil
}

// Register consumes a registration code and creates the account. The code is
// deleted exactly once before the account becomes durable, so two racing
// calls on one code cannot both register; the loser gets not-found.
func (s *OtpSignUp) Register(ctx context.Context, input RegisterInput, device session.Device) (domain.User, domain.TokenPair, error) {
	if input.Identity == "" {
		return domain.User{}, domain.TokenPair{}, apperrors.InvalidInput(fmt.Sprintf("%s is required", s.channel.Name))
	}
	if input.Password == "" {
		return domain.User{}, domain.TokenPair{}, apperrors.InvalidInput("password is required")
	}
	if input.Code == "" {
		return domain.User{}, domain.TokenPair{}, apperrors.InvalidInput("code is required")
	}

	found, err := s.otps.GetByCode(ctx, input.Code)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("lookup otp: %w", err)
	}

	destination, err := found.Destination()
	if err != nil {
		// A sign-in code presented at registration; it stays live.
		return domain.User{}, domain.TokenPair{}, apperrors.Unauthorized("incorrect login or otp")
	}
	if destination != input.Identity {
		// Code was issued to a different destination; it stays live.
		return domain.User{}, domain.TokenPair{}, apperrors.Unauthorized("incorrect login or otp")
	}

	if found.IsExpired(time.Now().UTC()) {
		if _, err := s.otps.Delete(ctx, found.ID()); err != nil {
			return domain.User{}, domain.TokenPair{}, fmt.Errorf("delete expired otp: %w", err)
		}
		return domain.User{}, domain.TokenPair{}, apperrors.Expired("otp is expired")
	}

	_, err = s.channel.Lookup(ctx, input.Identity)
	switch {
	case err == nil:
		// Someone registered the destination after the code was issued.
		if _, err := s.otps.Delete(ctx, found.ID()); err != nil {
			return domain.User{}, domain.TokenPair{}, fmt.Errorf("delete stale otp: %w", err)
		}
		return domain.User{}, domain.TokenPair{}, apperrors.Conflict(fmt.Sprintf("this %s is already used", s.channel.Name))
	case errors.Is(err, apperrors.ErrNotFound):
		// Destination is still free, proceed.
	default:
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	// Consume the code before the account becomes durable; losing the
	// conditional delete means a concurrent call already registered with it.
	removed, err := s.otps.Delete(ctx, found.ID())
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("delete otp: %w", err)
	}
	if !removed {
		return domain.User{}, domain.TokenPair{}, apperrors.NotFound("otp", found.ID())
	}

	user := s.channel.NewUser(input.FirstName, input.LastName, input.Identity).WithPasswordHash(hash)

	user, err = s.users.Save(ctx, user)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("save user: %w", err)
	}

	pair, err := s.issuer.Issue(ctx, user, device)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("issue session: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.Int64("user_id", user.ID),
		slog.String("channel", string(s.channel.Name)),
	)

	// The welcome message is sent by the worker consuming user.registered.
	return user, pair, nil
}
