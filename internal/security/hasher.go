package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost of 12 balances security and latency for interactive sign-in.
const bcryptCost = 12

// Hasher hashes and verifies password credentials.
type Hasher interface {
	// Hash derives a storable hash from a plaintext password.
	Hash(password string) (string, error)
	// Compare reports whether the plaintext password matches the hash.
	Compare(hash, password string) bool
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the production cost factor.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcryptCost}
}

// NewBcryptHasherWithCost creates a hasher with a custom cost factor.
// Tests use bcrypt.MinCost to keep hashing fast.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
