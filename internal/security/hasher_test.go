package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasherWithCost(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, h.Compare(hash, "correct horse battery staple"))
	assert.False(t, h.Compare(hash, "wrong password"))
}

func TestBcryptHasher_HashesDiffer(t *testing.T) {
	h := NewBcryptHasherWithCost(bcrypt.MinCost)

	h1, err := h.Hash("password")
	require.NoError(t, err)
	h2, err := h.Hash("password")
	require.NoError(t, err)

	// bcrypt salts every hash.
	assert.NotEqual(t, h1, h2)
}

func TestBcryptHasher_CompareGarbageHash(t *testing.T) {
	h := NewBcryptHasherWithCost(bcrypt.MinCost)
	assert.False(t, h.Compare("not-a-bcrypt-hash", "password"))
}

func TestNewBcryptHasher_ProductionCost(t *testing.T) {
	h := NewBcryptHasher()
	assert.Equal(t, bcryptCost, h.cost)
}
