package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

func setupSessionRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionRepository(client), mr
}

func sampleSession() domain.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.Session{
		UserID:    7,
		Access:    domain.Token{Value: "access-jwt", ExpiresAt: now.Add(15 * time.Minute)},
		Refresh:   domain.Token{Value: "refresh-opaque", ExpiresAt: now.Add(720 * time.Hour)},
		IPAddress: "203.0.113.7",
		CreatedAt: now,
	}
}

func TestSessionRepository_SaveAndGet(t *testing.T) {
	repo, _ := setupSessionRepo(t)
	s := sampleSession()

	require.NoError(t, repo.Save(context.Background(), s))

	got, err := repo.GetByRefreshToken(context.Background(), s.Refresh.Value)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestSessionRepository_SaveRejectsExpired(t *testing.T) {
	repo, _ := setupSessionRepo(t)
	s := sampleSession()
	s.Refresh.ExpiresAt = time.Now().Add(-time.Second)

	err := repo.Save(context.Background(), s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestSessionRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupSessionRepo(t)

	_, err := repo.GetByRefreshToken(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSessionRepository_Delete(t *testing.T) {
	repo, _ := setupSessionRepo(t)
	s := sampleSession()
	require.NoError(t, repo.Save(context.Background(), s))

	deleted, err := repo.Delete(context.Background(), s.Refresh.Value)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.GetByRefreshToken(context.Background(), s.Refresh.Value)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSessionRepository_DeleteMissing(t *testing.T) {
	repo, _ := setupSessionRepo(t)

	deleted, err := repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSessionRepository_ExpiresWithRefreshToken(t *testing.T) {
	repo, mr := setupSessionRepo(t)
	s := sampleSession()
	s.Refresh.ExpiresAt = time.Now().Add(time.Hour)
	require.NoError(t, repo.Save(context.Background(), s))

	mr.FastForward(2 * time.Hour)

	_, err := repo.GetByRefreshToken(context.Background(), s.Refresh.Value)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
