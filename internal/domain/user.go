package domain

import (
	"time"
)

// Contact is a communication endpoint attached to a user. Value is the raw
// address (email address or E.164 phone number); Verified records whether
// ownership of the endpoint has been proven with a one-time code.
type Contact struct {
	Value    string `json:"value,omitempty"`
	Verified bool   `json:"verified"`
}

// IsSet reports whether the contact carries an address.
func (c Contact) IsSet() bool {
	return c.Value != ""
}

// User represents a registered user. It is a value record: mutations return
// a copy, the receiver is never changed. The ID is assigned by the
// persistence layer on first save; a zero ID means the user has not been
// persisted yet.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Email        Contact   `json:"email"`
	Phone        Contact   `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser creates an unpersisted user with the given name.
func NewUser(firstName, lastName string) User {
	return User{
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: time.Now().UTC(),
	}
}

// WithID returns a copy of the user carrying the storage-assigned id.
func (u User) WithID(id int64) User {
	u.ID = id
	return u
}

// WithEmail returns a copy of the user with the email contact replaced.
func (u User) WithEmail(address string, verified bool) User {
	u.Email = Contact{Value: address, Verified: verified}
	return u
}

// WithPhone returns a copy of the user with the phone contact replaced.
func (u User) WithPhone(number string, verified bool) User {
	u.Phone = Contact{Value: number, Verified: verified}
	return u
}

// WithPasswordHash returns a copy of the user with the credential hash set.
func (u User) WithPasswordHash(hash string) User {
	u.PasswordHash = hash
	return u
}

// HasPassword reports whether a password credential is on record. Users
// created through OTP-only flows may not have one.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsPersisted reports whether the user has been saved and assigned an id.
func (u User) IsPersisted() bool {
	return u.ID != 0
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
