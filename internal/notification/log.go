package notification

import (
	"context"
	"log/slog"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

// LogSMSSender logs text messages instead of delivering them. It stands in
// for a real provider in development and always succeeds.
type LogSMSSender struct {
	logger *slog.Logger
}

// NewLogSMSSender creates a log-only sms sender.
func NewLogSMSSender(logger *slog.Logger) *LogSMSSender {
	return &LogSMSSender{logger: logger}
}

func (s *LogSMSSender) Name() string {
	return "log-sms"
}

func (s *LogSMSSender) Send(ctx context.Context, msg domain.SMSMessage) error {
	s.logger.InfoContext(ctx, "log sender: sms sent",
		slog.String("to", msg.To),
		slog.String("text", msg.Text),
	)
	return nil
}

// LogEmailSender logs emails instead of delivering them.
type LogEmailSender struct {
	logger *slog.Logger
}

// NewLogEmailSender creates a log-only email sender.
func NewLogEmailSender(logger *slog.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) Name() string {
	return "log-email"
}

func (s *LogEmailSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	s.logger.InfoContext(ctx, "log sender: email sent",
		slog.String("from", msg.From),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return nil
}
