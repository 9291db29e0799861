package devicegrant

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jot-sh/jot/internal/validation"
)

// deviceCodeBytes is the entropy of a device code. 32 random bytes make
// guessing a live device code within its lifetime infeasible; the code is a
// secret, not an identifier.
const deviceCodeBytes = 32

// generateDeviceCode returns a cryptographically random hex device code.
func generateDeviceCode() (string, error) {
	buf := make([]byte, deviceCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// selectRandomChar selects a random character from available without modulo
// bias by rejecting bytes outside the largest multiple of len(available).
func selectRandomChar(available []rune) (rune, error) {
	maxNeeded := 256 - (256 % len(available))

	for {
		b := make([]byte, 1)
		if _, err := rand.Read(b); err != nil {
			return 0, fmt.Errorf("generating random byte: %w", err)
		}
		if int(b[0]) >= maxNeeded {
			continue
		}
		return available[int(b[0])%len(available)], nil
	}
}

// generateUserCode returns a short human-enterable code in XXXX-XXXX display
// form. Characters repeat at most twice so transcription mistakes stay easy
// to spot.
func generateUserCode() (string, error) {
	charset := []rune(validation.Charset)

	var builder strings.Builder
	freqs := make(map[rune]int)

	for i := 0; i < validation.CodeLength; i++ {
		if i == validation.GroupSize {
			builder.WriteRune('-')
		}

		var available []rune
		for _, c := range charset {
			if freqs[c] < 2 {
				available = append(available, c)
			}
		}

		char, err := selectRandomChar(available)
		if err != nil {
			return "", err
		}
		builder.WriteRune(char)
		freqs[char]++
	}

	code := builder.String()
	if err := validation.ValidateUserCode(code); err != nil {
		return "", fmt.Errorf("generated invalid user code: %w", err)
	}
	return code, nil
}
