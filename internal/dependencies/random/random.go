package random

import (
	"crypto/rand"
)

// Random produces the unguessable strings used for session tokens
type Random interface {
	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// String generates a random string of the given length from the given alphabet.
// Bytes that would bias the draw towards the start of the alphabet are rejected.
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 || len(alphabet) > 256 {
		return ""
	}

	limit := 256 - 256%len(alphabet)
	result := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(result) < length {
		// crypto/rand.Read never returns an error on supported platforms
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			result = append(result, alphabet[int(b)%len(alphabet)])
			if len(result) == length {
				break
			}
		}
	}
	return string(result)
}
