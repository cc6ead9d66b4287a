package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrLocationEmpty is returned when the place name is empty or whitespace-only after trim.
var ErrLocationEmpty = errors.New("place name is required")

// ErrLocationTooShort is returned when the place name length is below the minimum.
var ErrLocationTooShort = errors.New("place name too short")

// ErrLocationTooLong is returned when the place name length exceeds the maximum.
var ErrLocationTooLong = errors.New("place name too long")

// ErrLocationInvalidChars is returned when the place name contains disallowed characters.
var ErrLocationInvalidChars = errors.New("place name contains invalid characters")

// ValidatePlace trims the input, enforces length bounds (minLen, maxLen in
// runes), and restricts to characters that occur in Dutch place names:
// letters (Unicode), digits, space, comma, hyphen, period, apostrophe
// ('s-Hertogenbosch, Sint Anthonis). Returns the trimmed string or an error
// suitable for an invalid-input tool response.
func ValidatePlace(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrLocationEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrLocationTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrLocationTooLong
	}
	for _, c := range r {
		if !isAllowedPlaceRune(c) {
			return "", ErrLocationInvalidChars
		}
	}
	return s, nil
}

func isAllowedPlaceRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'':
		return true
	}
	return false
}
