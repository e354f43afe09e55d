package token

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	// Alphabet is the fixed character set session tokens are drawn from.
	// ASCII only: tokens travel in Authorization headers and as Redis keys.
	Alphabet = "0123456789" +
		"abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"!$%&()=_-.,:;#*<>?"

	// DefaultLength is the canonical session-token length.
	DefaultLength = 16
)

// New returns a random token of the given length drawn uniformly from
// Alphabet using crypto/rand. Uniqueness is probabilistic; callers that
// index tokens must check for collisions themselves.
func New(length int) (string, error) {
	if length < 8 || length > 128 {
		return "", ErrInvalidLength
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(Alphabet[n.Int64()])
	}

	return b.String(), nil
}
