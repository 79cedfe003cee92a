// Package textutil canonicalizes free-text fields typed by people: names,
// company names and address lines.
package textutil

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var ErrInvalidText = errors.New("invalid text")

// Policy bounds a single field. Any printable text is accepted; names like
// "Loja 100% Brasil" are legitimate.
type Policy struct {
	MaxRunes   int
	AllowEmpty bool
}

var (
	PersonName  = Policy{MaxRunes: 120}
	CompanyName = Policy{MaxRunes: 150}
	AddressLine = Policy{MaxRunes: 200, AllowEmpty: true}
)

// Normalize applies NFC composition, trims, collapses inner whitespace runs
// to one space and checks the length against p. Control and format
// characters, line breaks included, are rejected.
func Normalize(s string, p Policy) (string, error) {
	if p.MaxRunes <= 0 {
		return "", ErrInvalidText
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidText
	}
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		if p.AllowEmpty {
			return "", nil
		}
		return "", ErrInvalidText
	}

	var b strings.Builder
	b.Grow(len(s))
	n := 0
	prevSpace := false
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || unicode.IsControl(r) || unicode.In(r, unicode.Cf):
			return "", ErrInvalidText
		case unicode.IsSpace(r):
			if prevSpace {
				continue
			}
			prevSpace = true
			r = ' '
		default:
			prevSpace = false
		}
		if n++; n > p.MaxRunes {
			return "", ErrInvalidText
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// FirstNonEmpty returns the first value that is not blank, trimmed.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
