// Package msisdn normalizes Kenyan phone numbers to the 2547XXXXXXXX
// national format expected by both payment rails.
package msisdn

import (
	"strings"

	"github.com/wakala/interop/internal/domain"
)

// Normalize strips non-digit characters and rewrites local prefixes to the
// 254 country code. It accepts 07XXXXXXXX, 7XXXXXXXX and 2547XXXXXXXX
// inputs (with or without punctuation or a leading +) and fails with
// ErrInvalidPhoneNumber for anything that does not normalize to a twelve
// digit 254 number.
func Normalize(phone string) (string, error) {
	var b strings.Builder
	for _, ch := range phone {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "0"):
		digits = "254" + digits[1:]
	case strings.HasPrefix(digits, "7") && len(digits) == 9:
		digits = "254" + digits
	}

	if len(digits) != 12 || !strings.HasPrefix(digits, "254") {
		return "", domain.ErrInvalidPhoneNumber
	}
	return digits, nil
}
