package sso

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"
	"github.com/ilKhr/simple-phone-and-email-auth/pkg/tracing"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/event"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/repository"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/session"
)

var tracer = tracing.Tracer("github.com/ilKhr/simple-phone-and-email-auth/internal/sso")

// Method identifies a credential strategy. The set is closed: registries are
// populated at startup and routing never falls back on raw string lookup.
type Method string

const (
	MethodEmailPassword Method = "email_password"
	MethodPhonePassword Method = "phone_password"
	MethodEmailOtp      Method = "email_otp"
	MethodPhoneOtp      Method = "phone_otp"
)

// ParseMethod maps a wire value onto a known method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodEmailPassword, MethodPhonePassword, MethodEmailOtp, MethodPhoneOtp:
		return m, nil
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("unsupported method %q", s))
	}
}

// Credentials is the secret material presented at sign-in. Identity is the
// destination the method authenticates (email address or phone number);
// Secret is the password for password methods and the one-time code for otp
// methods.
type Credentials struct {
	Identity string
	Secret   string
}

// RegisterInput holds the parameters for completing a sign-up.
type RegisterInput struct {
	Identity  string
	Password  string
	Code      string
	FirstName string
	LastName  string
}

// TokenIssuer mints a token pair for the user and persists the backing
// session, and revokes sessions by refresh token. Implemented by
// session.Issuer.
type TokenIssuer interface {
	Issue(ctx context.Context, user domain.User, device session.Device) (domain.TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// SignInStrategy authenticates existing accounts for one method.
type SignInStrategy interface {
	// Authenticate checks the presented credentials and issues a session.
	Authenticate(ctx context.Context, creds Credentials, device session.Device) (domain.User, domain.TokenPair, error)

	// Verify runs the pre-flight step for the method: an existence check
	// for password methods, a code dispatch for otp methods.
	Verify(ctx context.Context, identity string) error
}

// SignUpStrategy creates accounts for one method.
type SignUpStrategy interface {
	// Register consumes a previously issued code and creates the account.
	Register(ctx context.Context, input RegisterInput, device session.Device) (domain.User, domain.TokenPair, error)

	// Verify issues a code to an unregistered destination.
	Verify(ctx context.Context, destination string) error
}

// Service is the strategy dispatcher. It routes sign-in and sign-up calls by
// method and publishes domain events on success; all credential logic lives
// in the strategies.
type Service struct {
	signIn   map[Method]SignInStrategy
	signUp   map[Method]SignUpStrategy
	issuer   TokenIssuer
	sessions repository.SessionRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewService creates the dispatcher over fixed strategy registries.
func NewService(
	signIn map[Method]SignInStrategy,
	signUp map[Method]SignUpStrategy,
	issuer TokenIssuer,
	sessions repository.SessionRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *Service {
	return &Service{
		signIn:   signIn,
		signUp:   signUp,
		issuer:   issuer,
		sessions: sessions,
		producer: producer,
		logger:   logger,
	}
}

// SignIn authenticates with the given method and returns the user and a
// fresh token pair.
func (s *Service) SignIn(ctx context.Context, method Method, creds Credentials, device session.Device) (domain.User, domain.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "sso.SignIn",
		trace.WithAttributes(attribute.String("auth.method", string(method))))
	defer span.End()

	strategy, ok := s.signIn[method]
	if !ok {
		return domain.User{}, domain.TokenPair{}, unsupportedMethod("sign-in", method)
	}

	user, pair, err := strategy.Authenticate(ctx, creds, device)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	// Publish sign-in event (non-blocking on failure).
	if err := s.producer.PublishUserSignedIn(ctx, user, string(method), device.IPAddress); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.signed_in event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.Int64("user_id", user.ID),
		slog.String("method", string(method)),
	)

	return user, pair, nil
}

// SignInVerify runs the pre-flight step of a sign-in method.
func (s *Service) SignInVerify(ctx context.Context, method Method, identity string) error {
	strategy, ok := s.signIn[method]
	if !ok {
		return unsupportedMethod("sign-in", method)
	}
	return strategy.Verify(ctx, identity)
}

// SignUp completes a registration with the given method and returns the new
// user and a token pair.
func (s *Service) SignUp(ctx context.Context, method Method, input RegisterInput, device session.Device) (domain.User, domain.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "sso.SignUp",
		trace.WithAttributes(attribute.String("auth.method", string(method))))
	defer span.End()

	strategy, ok := s.signUp[method]
	if !ok {
		return domain.User{}, domain.TokenPair{}, unsupportedMethod("sign-up", method)
	}

	user, pair, err := strategy.Register(ctx, input, device)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user, string(method)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("method", string(method)),
	)

	return user, pair, nil
}

// Logout revokes the session behind a refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := tracer.Start(ctx, "sso.Logout")
	defer span.End()

	if refreshToken == "" {
		return apperrors.InvalidInput("refresh token is required")
	}

	// Look the session up first so the revocation event can name its owner.
	sess, lookupErr := s.sessions.GetByRefreshToken(ctx, refreshToken)

	if err := s.issuer.Revoke(ctx, refreshToken); err != nil {
		return err
	}

	if lookupErr == nil {
		// Publish revocation event (non-blocking on failure).
		if err := s.producer.PublishSessionRevoked(ctx, sess.UserID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish session.revoked event",
				slog.Int64("user_id", sess.UserID),
				slog.String("error", err.Error()),
			)
		}

		s.logger.InfoContext(ctx, "user logged out",
			slog.Int64("user_id", sess.UserID),
		)
	}

	return nil
}

// SignUpVerify issues a verification code for a sign-up method.
func (s *Service) SignUpVerify(ctx context.Context, method Method, destination string) error {
	strategy, ok := s.signUp[method]
	if !ok {
		return unsupportedMethod("sign-up", method)
	}
	return strategy.Verify(ctx, destination)
}

func unsupportedMethod(kind string, method Method) error {
	return apperrors.InvalidInput(fmt.Sprintf("unsupported %s method %q", kind, method))
}
