package oidc

import (
	"context"
	"fmt"
	"strconv"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/repository"
)

// Account is the identity record handed to an external OIDC provider engine.
// Subject is the string form of the user id; Claims carries the standard
// identity claims the provider may disclose per scope.
type Account struct {
	Subject string
	Claims  map[string]any
}

// AccountFinder resolves OIDC subjects to accounts. The provider engine
// itself runs outside this service and only needs this lookup callback.
type AccountFinder struct {
	users repository.UserRepository
}

// NewAccountFinder creates an account finder over the user repository.
func NewAccountFinder(users repository.UserRepository) *AccountFinder {
	return &AccountFinder{users: users}
}

// FindAccount looks up the account behind a subject. A subject that is not a
// numeric user id is invalid input, an unknown id keeps its not-found
// identity.
func (f *AccountFinder) FindAccount(ctx context.Context, subject string) (Account, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return Account{}, apperrors.InvalidInput(fmt.Sprintf("subject %q is not a user id", subject))
	}

	user, err := f.users.GetByID(ctx, id)
	if err != nil {
		return Account{}, fmt.Errorf("lookup account: %w", err)
	}

	claims := map[string]any{
		"sub": subject,
	}
	if user.Email.IsSet() {
		claims["email"] = user.Email.Value
		claims["email_verified"] = user.Email.Verified
	}
	if user.Phone.IsSet() {
		claims["phone_number"] = user.Phone.Value
		claims["phone_number_verified"] = user.Phone.Verified
	}
	if user.FirstName != "" {
		claims["given_name"] = user.FirstName
	}
	if user.LastName != "" {
		claims["family_name"] = user.LastName
	}

	return Account{Subject: subject, Claims: claims}, nil
}
