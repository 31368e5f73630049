// Package captcha generates the human-presence challenge that unlocks the
// intake form and renders it as an obfuscated PNG.
package captcha

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	// Alphabet excludes the ambiguous I, O, 0 and 1.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	Length   = 8
)

// ErrMismatch is returned when a guess does not match the challenge.
var ErrMismatch = errors.New("captcha mismatch")

// Challenge is the text the user must copy from the image.
type Challenge string

// Source picks an index in [0, n). It is swappable for deterministic tests.
type Source func(n int) int

// CryptoSource draws indices from crypto/rand.
func CryptoSource(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("captcha: crypto/rand unavailable: " + err.Error())
	}
	return int(v.Int64())
}

// Generate draws Length characters uniformly with replacement from Alphabet.
func Generate(src Source) Challenge {
	if src == nil {
		src = CryptoSource
	}
	b := make([]byte, Length)
	for i := range b {
		b[i] = Alphabet[src(len(Alphabet))]
	}
	return Challenge(b)
}

// Verify is a case-insensitive exact comparison. Attempts are unlimited.
func Verify(input string, c Challenge) bool {
	return strings.ToUpper(input) == strings.ToUpper(string(c))
}

// Check wraps Verify with ErrMismatch.
func Check(input string, c Challenge) error {
	if !Verify(input, c) {
		return ErrMismatch
	}
	return nil
}

// Message is the user-facing text for a failed check.
const Message = "Incorrect CAPTCHA characters. Please try again."
