package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
	pkgkafka "github.com/ilKhr/simple-phone-and-email-auth/pkg/kafka"
)

// Kafka topic constants for auth domain events.
const (
	TopicUserRegistered = "auth.user.registered"
	TopicUserSignedIn   = "auth.user.signed_in"
	TopicSessionRevoked = "auth.session.revoked"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from the auth service.
const SourceAuthService = "auth-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID        int64  `json:"id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Method    string `json:"method"`
}

// UserSignedInData is the payload for a user.signed_in event.
type UserSignedInData struct {
	ID        int64  `json:"id"`
	Method    string `json:"method"`
	IPAddress string `json:"ip_address,omitempty"`
}

// SessionRevokedData is the payload for a session.revoked event.
type SessionRevokedData struct {
	UserID int64 `json:"user_id"`
}

// Producer publishes auth domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the auth service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user domain.User, method string) error {
	data := UserRegisteredData{
		ID:        user.ID,
		Email:     user.Email.Value,
		Phone:     user.Phone.Value,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Method:    method,
	}

	aggregateID := strconv.FormatInt(user.ID, 10)

	event, err := pkgkafka.NewEvent(TopicUserRegistered, aggregateID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.Int64("user_id", user.ID),
		slog.String("method", method),
	)

	return nil
}

// PublishUserSignedIn publishes a user.signed_in event.
func (p *Producer) PublishUserSignedIn(ctx context.Context, user domain.User, method, ipAddress string) error {
	data := UserSignedInData{
		ID:        user.ID,
		Method:    method,
		IPAddress: ipAddress,
	}

	aggregateID := strconv.FormatInt(user.ID, 10)

	event, err := pkgkafka.NewEvent(TopicUserSignedIn, aggregateID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create user.signed_in event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserSignedIn, event); err != nil {
		return fmt.Errorf("publish user.signed_in event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.signed_in event",
		slog.Int64("user_id", user.ID),
		slog.String("method", method),
	)

	return nil
}

// PublishSessionRevoked publishes a session.revoked event.
func (p *Producer) PublishSessionRevoked(ctx context.Context, userID int64) error {
	data := SessionRevokedData{UserID: userID}

	aggregateID := strconv.FormatInt(userID, 10)

	event, err := pkgkafka.NewEvent(TopicSessionRevoked, aggregateID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create session.revoked event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionRevoked, event); err != nil {
		return fmt.Errorf("publish session.revoked event: %w", err)
	}

	p.logger.DebugContext(ctx, "published session.revoked event",
		slog.Int64("user_id", userID),
	)

	return nil
}
