package domain

import (
	"time"
)

// Token is a credential value with its expiry instant.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session represents an authenticated device session. It is keyed in storage
// by the refresh token value, so presenting a refresh token is enough to
// locate and revoke the session it belongs to.
type Session struct {
	UserID    int64     `json:"user_id"`
	Access    Token     `json:"access"`
	Refresh   Token     `json:"refresh"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the refresh token, and with it the whole
// session, has expired at the given instant.
func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.Refresh.ExpiresAt)
}

// Pair returns the session's tokens in transport form.
func (s Session) Pair() TokenPair {
	return TokenPair{AccessToken: s.Access.Value, RefreshToken: s.Refresh.Value}
}
