package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

const (
	otpKeyPrefix     = "otp:id:"
	otpCodeKeyPrefix = "otp:code:"
	otpDestKeyPrefix = "otp:dest:"
)

// OtpRepository implements repository.OtpRepository using Redis. Every otp
// is stored under three keys: the record itself plus code and destination
// indexes, all sharing the otp's remaining lifetime as TTL, so expired codes
// are reclaimed by the store without a sweeper.
type OtpRepository struct {
	client *redis.Client
}

// NewOtpRepository creates a new Redis-backed otp repository.
func NewOtpRepository(client *redis.Client) *OtpRepository {
	return &OtpRepository{client: client}
}

// Save persists the otp under its remaining lifetime. An otp that is already
// past its expiry is rejected.
func (r *OtpRepository) Save(ctx context.Context, otp domain.Otp) (domain.Otp, error) {
	if otp.ID() == "" {
		otp = otp.WithID(uuid.NewString())
	}
	rec := otp.Record()

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return domain.Otp{}, apperrors.InvalidInput("otp is already expired")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return domain.Otp{}, fmt.Errorf("marshal otp: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, otpKeyPrefix+rec.ID, data, ttl)
	pipe.Set(ctx, otpCodeKeyPrefix+rec.Code, rec.ID, ttl)
	pipe.Set(ctx, otpDestKeyPrefix+rec.Destination, rec.ID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Otp{}, fmt.Errorf("redis set otp: %w", err)
	}

	return otp, nil
}

// GetByCode retrieves an otp through the code index.
func (r *OtpRepository) GetByCode(ctx context.Context, code string) (domain.Otp, error) {
	return r.getByIndex(ctx, otpCodeKeyPrefix+code, code)
}

// GetByDestination retrieves an otp through the destination index.
func (r *OtpRepository) GetByDestination(ctx context.Context, destination string) (domain.Otp, error) {
	return r.getByIndex(ctx, otpDestKeyPrefix+destination, destination)
}

func (r *OtpRepository) getByIndex(ctx context.Context, indexKey, lookup string) (domain.Otp, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Otp{}, apperrors.NotFound("otp", lookup)
		}
		return domain.Otp{}, fmt.Errorf("redis get otp index: %w", err)
	}

	data, err := r.client.Get(ctx, otpKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Index outlived the record by a hair; treat as gone.
			return domain.Otp{}, apperrors.NotFound("otp", lookup)
		}
		return domain.Otp{}, fmt.Errorf("redis get otp: %w", err)
	}

	var rec domain.OtpRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Otp{}, fmt.Errorf("unmarshal otp: %w", err)
	}

	return domain.OtpFromRecord(rec), nil
}

// Delete removes the otp and its indexes. The returned flag reports whether
// this call actually removed the record, so two racing consumers of the same
// code can tell winner from loser.
func (r *OtpRepository) Delete(ctx context.Context, id string) (bool, error) {
	data, err := r.client.Get(ctx, otpKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get otp: %w", err)
	}

	var rec domain.OtpRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return false, fmt.Errorf("unmarshal otp: %w", err)
	}

	deleted, err := r.client.Del(ctx, otpKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis del otp: %w", err)
	}
	// Indexes are cleaned up regardless of who won the record delete.
	if err := r.client.Del(ctx, otpCodeKeyPrefix+rec.Code, otpDestKeyPrefix+rec.Destination).Err(); err != nil {
		return false, fmt.Errorf("redis del otp indexes: %w", err)
	}

	return deleted > 0, nil
}
