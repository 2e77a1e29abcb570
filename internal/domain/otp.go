package domain

import (
	"errors"
	"time"
)

// ErrOtpBound is returned when reading the destination of an otp that is
// already attached to a user. The destination binding is only meaningful
// before registration completes; reading it afterwards is a programming error.
var ErrOtpBound = errors.New("otp is bound to a user, destination is not available")

// Otp is a one-time code. Before registration it is bound to a destination
// (the address the code was sent to) and has no owner. Once an account
// exists the otp carries the owner's user id instead.
//
// Otp is a value record with unexported fields; use NewOtp / NewUserOtp to
// create one and Record / OtpFromRecord to move it across a storage boundary.
type Otp struct {
	id          string
	code        string
	userID      *int64
	destination string
	expiresAt   time.Time
}

// NewOtp creates a pre-registration otp bound to a destination.
func NewOtp(code, destination string, expiresAt time.Time) Otp {
	return Otp{code: code, destination: destination, expiresAt: expiresAt}
}

// NewUserOtp creates an otp owned by an existing user.
func NewUserOtp(code string, userID int64, destination string, expiresAt time.Time) Otp {
	return Otp{code: code, userID: &userID, destination: destination, expiresAt: expiresAt}
}

// ID returns the storage-assigned identifier, empty until saved.
func (o Otp) ID() string { return o.id }

// Code returns the one-time code value.
func (o Otp) Code() string { return o.code }

// UserID returns the owning user id, or nil for a pre-registration otp.
func (o Otp) UserID() *int64 { return o.userID }

// ExpiresAt returns the expiry instant.
func (o Otp) ExpiresAt() time.Time { return o.expiresAt }

// IsExpired reports whether the otp has passed its expiry at the given instant.
func (o Otp) IsExpired(now time.Time) bool {
	return !now.Before(o.expiresAt)
}

// Destination returns the address the code was sent to. It fails with
// ErrOtpBound when the otp already has an owner.
func (o Otp) Destination() (string, error) {
	if o.userID != nil {
		return "", ErrOtpBound
	}
	return o.destination, nil
}

// WithID returns a copy of the otp carrying the storage-assigned id.
func (o Otp) WithID(id string) Otp {
	o.id = id
	return o
}

// OtpRecord is the flat persistence form of an Otp. It exists so repositories
// can serialize the unexported fields without weakening the Destination
// invariant for the rest of the code.
type OtpRecord struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	UserID      *int64    `json:"user_id,omitempty"`
	Destination string    `json:"destination"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Record returns the persistence form of the otp.
func (o Otp) Record() OtpRecord {
	return OtpRecord{
		ID:          o.id,
		Code:        o.code,
		UserID:      o.userID,
		Destination: o.destination,
		ExpiresAt:   o.expiresAt,
	}
}

// OtpFromRecord rebuilds an Otp from its persistence form.
func OtpFromRecord(r OtpRecord) Otp {
	return Otp{
		id:          r.ID,
		code:        r.Code,
		userID:      r.UserID,
		destination: r.Destination,
		expiresAt:   r.ExpiresAt,
	}
}
