// Package contactutil checks and normalizes contact fields: phone numbers and
// e-mail addresses.
package contactutil

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "BR"

var v = validator.New()

// IsValidPhone reports whether s carries a Brazilian landline (10 digits) or
// mobile (11 digits) number once formatting is stripped.
func IsValidPhone(s string) bool {
	n := 0
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			n++
		}
	}
	return n == 10 || n == 11
}

// IsValidEmail reports whether s is a well-formed address with a dotted
// domain. Surrounding whitespace is not tolerated.
func IsValidEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || !strings.Contains(s[at+1:], ".") {
		return false
	}
	return v.Var(s, "email") == nil
}

// NormalizeEmail lowercases and trims. It does not validate.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone formats s as E.164 using the Brazilian numbering plan unless
// s carries its own country code. Input that does not parse to a valid number
// is returned trimmed.
func NormalizePhone(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return trimmed
	}

	num, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return trimmed
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
