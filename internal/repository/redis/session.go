package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

const sessionKeyPrefix = "session:"

// SessionRepository implements repository.SessionRepository using Redis.
// A session lives under its refresh token value with the token's remaining
// lifetime as TTL, so revocation is one delete and expiry needs no sweeper.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Save persists the session under its refresh token.
func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	ttl := time.Until(session.Refresh.ExpiresAt)
	if ttl <= 0 {
		return apperrors.InvalidInput("session refresh token is already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKeyPrefix+session.Refresh.Value, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// GetByRefreshToken retrieves the session a refresh token belongs to.
func (r *SessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+refreshToken).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, apperrors.NotFound("session", refreshToken)
		}
		return domain.Session{}, fmt.Errorf("redis get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	return session, nil
}

// Delete revokes the session behind the refresh token.
func (r *SessionRepository) Delete(ctx context.Context, refreshToken string) (bool, error) {
	deleted, err := r.client.Del(ctx, sessionKeyPrefix+refreshToken).Result()
	if err != nil {
		return false, fmt.Errorf("redis del session: %w", err)
	}
	return deleted > 0, nil
}
