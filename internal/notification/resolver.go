package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nyaruka/phonenumbers"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

// Resolver routes a text message to a chain of provider candidates picked by
// the destination number's country. Candidates are tried in registration
// order; an individual provider failure is logged and the next candidate is
// tried. Only when the whole chain is exhausted does the send fail.
//
// Resolver itself satisfies SMSSender, so it can stand wherever a single
// provider could.
type Resolver struct {
	providers map[string][]SMSSender
	silent    bool
	logger    *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSilentFailure makes an exhausted provider chain log the failure and
// report success instead of returning a delivery error. Off by default:
// callers should normally know their message went nowhere.
func WithSilentFailure() ResolverOption {
	return func(r *Resolver) { r.silent = true }
}

// NewResolver creates an empty resolver. Register providers per country
// before use.
func NewResolver(logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		providers: make(map[string][]SMSSender),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends a provider candidate for the given ISO 3166-1 alpha-2
// country code.
func (r *Resolver) Register(country string, sender SMSSender) {
	r.providers[country] = append(r.providers[country], sender)
}

func (r *Resolver) Name() string {
	return "country-resolver"
}

func (r *Resolver) Send(ctx context.Context, msg domain.SMSMessage) error {
	num, err := phonenumbers.Parse(msg.To, "")
	if err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid phone number %q", msg.To))
	}
	if !phonenumbers.IsValidNumber(num) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid phone number %q", msg.To))
	}

	region := phonenumbers.GetRegionCodeForNumber(num)
	candidates := r.providers[region]
	if len(candidates) == 0 {
		return apperrors.Delivery(fmt.Sprintf("no sms provider for country %s", region))
	}

	var lastErr error
	for _, candidate := range candidates {
		if err := candidate.Send(ctx, msg); err != nil {
			lastErr = err
			r.logger.WarnContext(ctx, "sms provider failed, trying next candidate",
				slog.String("provider", candidate.Name()),
				slog.String("country", region),
				slog.String("error", err.Error()),
			)
			continue
		}
		return nil
	}

	if r.silent {
		r.logger.ErrorContext(ctx, "all sms providers failed, message dropped",
			slog.String("country", region),
			slog.String("error", lastErr.Error()),
		)
		return nil
	}
	return apperrors.Delivery(fmt.Sprintf("all sms providers failed for country %s: %v", region, lastErr))
}
