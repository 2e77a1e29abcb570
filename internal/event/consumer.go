package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/message"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/notification"
	pkgkafka "github.com/ilKhr/simple-phone-and-email-auth/pkg/kafka"
)

// ConsumerGroupWelcome is the consumer group for the welcome delivery worker.
const ConsumerGroupWelcome = "auth-welcome"

// WelcomeConsumer delivers the post-registration welcome message. The HTTP
// registration flow only emits user.registered; this handler picks the event
// up off the topic, so a slow or failing provider never blocks sign-up.
type WelcomeConsumer struct {
	provider *message.Provider
	email    notification.EmailSender
	sms      notification.SMSSender
	logger   *slog.Logger
}

// NewWelcomeConsumer creates the welcome event handler.
func NewWelcomeConsumer(
	provider *message.Provider,
	email notification.EmailSender,
	sms notification.SMSSender,
	logger *slog.Logger,
) *WelcomeConsumer {
	return &WelcomeConsumer{
		provider: provider,
		email:    email,
		sms:      sms,
		logger:   logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (c *WelcomeConsumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicUserRegistered:
		return c.handleUserRegistered(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleUserRegistered renders and sends the welcome message over the channel
// the account was registered with.
func (c *WelcomeConsumer) handleUserRegistered(ctx context.Context, event *pkgkafka.Event) error {
	var data UserRegisteredData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal user.registered payload: %w", err)
	}

	params := message.Params{Name: data.FirstName}

	switch {
	case data.Email != "":
		render, err := c.provider.Email(message.TypeWelcome)
		if err != nil {
			return fmt.Errorf("welcome email template: %w", err)
		}
		params.To = data.Email
		if err := c.email.Send(ctx, render(params)); err != nil {
			return fmt.Errorf("send welcome email: %w", err)
		}
	case data.Phone != "":
		render, err := c.provider.Phone(message.TypeWelcome)
		if err != nil {
			return fmt.Errorf("welcome sms template: %w", err)
		}
		params.To = data.Phone
		if err := c.sms.Send(ctx, render(params)); err != nil {
			return fmt.Errorf("send welcome sms: %w", err)
		}
	default:
		c.logger.WarnContext(ctx, "user.registered event without a contact",
			slog.String("event_id", event.EventID),
			slog.String("aggregate_id", event.AggregateID),
		)
		return nil
	}

	c.logger.InfoContext(ctx, "welcome message sent",
		slog.String("user_id", event.AggregateID),
		slog.String("method", data.Method),
	)
	return nil
}
