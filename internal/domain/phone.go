package domain

import (
	"fmt"
	"strings"
)

const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// NormalizePhone converts a phone number to its canonical international
// form: a leading + followed by 8 to 15 digits. Separators are stripped and
// a 00 international prefix is rewritten to +.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: phone number is required", ErrValidation)
	}

	plus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')' || r == '+':
			// separator, dropped
		default:
			return "", fmt.Errorf("%w: invalid phone number %q", ErrValidation, raw)
		}
	}

	number := digits.String()
	if !plus && strings.HasPrefix(number, "00") {
		number = number[2:]
	}

	if len(number) < minPhoneDigits || len(number) > maxPhoneDigits {
		return "", fmt.Errorf("%w: phone number must have %d to %d digits", ErrValidation, minPhoneDigits, maxPhoneDigits)
	}

	return "+" + number, nil
}
