package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var ten = big.NewInt(10)

// Generator produces one-time codes.
type Generator interface {
	Code() (string, error)
}

// DigitGenerator produces fixed-width numeric codes from crypto/rand. Each
// digit is drawn uniformly and independently, so codes with leading zeros
// ("0042") occur at the same rate as any other value.
type DigitGenerator struct {
	length int
}

// NewDigitGenerator creates a generator for codes of the given width.
func NewDigitGenerator(length int) *DigitGenerator {
	return &DigitGenerator{length: length}
}

func (g *DigitGenerator) Code() (string, error) {
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		buf[i] = '0' + byte(n.Int64())
	}
	return string(buf), nil
}
