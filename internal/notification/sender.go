package notification

import (
	"context"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

// SMSSender delivers a rendered text message through a specific provider.
type SMSSender interface {
	Name() string
	Send(ctx context.Context, msg domain.SMSMessage) error
}

// EmailSender delivers a rendered email through a specific provider.
type EmailSender interface {
	Name() string
	Send(ctx context.Context, msg domain.EmailMessage) error
}
