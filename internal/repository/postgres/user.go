package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ilKhr/simple-phone-and-email-auth/pkg/database"
	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Save inserts the user when it has no id yet, otherwise updates it. The
// returned copy always carries the storage-assigned id.
func (r *UserRepository) Save(ctx context.Context, u domain.User) (domain.User, error) {
	if !u.IsPersisted() {
		return r.insert(ctx, u)
	}
	return r.update(ctx, u)
}

func (r *UserRepository) insert(ctx context.Context, u domain.User) (domain.User, error) {
	query := `
		INSERT INTO users (email, email_verified, phone, phone_verified, password_hash, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		nullable(u.Email.Value),
		u.Email.Verified,
		nullable(u.Phone.Value),
		u.Phone.Verified,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, apperrors.Conflict("user with this email or phone already exists")
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u.WithID(id), nil
}

func (r *UserRepository) update(ctx context.Context, u domain.User) (domain.User, error) {
	query := `
		UPDATE users
		SET email = $1, email_verified = $2, phone = $3, phone_verified = $4,
		    password_hash = $5, first_name = $6, last_name = $7
		WHERE id = $8`

	ct, err := r.db.Exec(ctx, query,
		nullable(u.Email.Value),
		u.Email.Verified,
		nullable(u.Phone.Value),
		u.Phone.Verified,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, apperrors.Conflict("user with this email or phone already exists")
		}
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return domain.User{}, apperrors.NotFound("user", fmt.Sprint(u.ID))
	}

	return u, nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	query := selectUser + ` WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := selectUser + ` WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// GetByPhone retrieves a user by their phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (domain.User, error) {
	query := selectUser + ` WHERE phone = $1`
	return r.scanUser(ctx, query, phone)
}

const selectUser = `
		SELECT id, email, email_verified, phone, phone_verified, password_hash, first_name, last_name, created_at
		FROM users`

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (domain.User, error) {
	var (
		u     domain.User
		email *string
		phone *string
	)

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&email,
		&u.Email.Verified,
		&phone,
		&u.Phone.Verified,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, apperrors.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}

	if email != nil {
		u.Email.Value = *email
	}
	if phone != nil {
		u.Phone.Value = *phone
	}

	return u, nil
}

// nullable maps an empty string to NULL so partial contact sets do not
// collide on the unique indexes.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
