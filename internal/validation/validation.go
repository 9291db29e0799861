// Package validation provides user code validation for the device grant flow.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// GroupSize is the number of characters in each half of a user code.
	GroupSize = 4

	// CodeLength is the total user code length excluding the separator.
	CodeLength = 2 * GroupSize
)

// Charset contains the allowed user code characters. Vowels and
// similar-looking characters are excluded so codes survive transcription.
const Charset = "BCDFGHJKLMNPQRSTVWXZ"

var codeRegex = regexp.MustCompile(fmt.Sprintf("^[%s]{%d}-?[%s]{%d}$",
	Charset, GroupSize, Charset, GroupSize))

// Error describes why a user code was rejected.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid user code %q: %s", e.Code, e.Message)
}

// ValidateUserCode checks that a user code has the expected length, format
// and charset. Input is normalized first, so case and the separator are
// forgiven.
func ValidateUserCode(code string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(code))

	if len(Normalize(trimmed)) != CodeLength {
		return &Error{
			Code:    trimmed,
			Message: fmt.Sprintf("length must be %d characters", CodeLength),
		}
	}

	if !codeRegex.MatchString(trimmed) {
		return &Error{
			Code:    trimmed,
			Message: "code must be in format XXXX-XXXX using only allowed characters",
		}
	}

	return nil
}

// Normalize converts a user code to canonical lookup form: upper case, no
// separator, no surrounding whitespace.
func Normalize(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}

// Format converts a normalized code back to the XXXX-XXXX display form.
func Format(code string) string {
	if len(code) != CodeLength {
		return code
	}
	return code[:GroupSize] + "-" + code[GroupSize:]
}
