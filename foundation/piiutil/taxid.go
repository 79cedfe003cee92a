package piiutil

import "strings"

// MaskTaxID masks a tax identifier for logs.
//
// An individual ID (11 digits) keeps only its middle six digits, the way
// Brazilian public records publish it. An organization ID (14 digits) is a
// public registration and is returned unchanged. Anything else keeps its
// last 4 digits.
//
//	"529.982.247-25"     -> "***.982.247-**"
//	"11.444.777/0001-61" -> "11.444.777/0001-61"
//	"123456"             -> "**3456"
func MaskTaxID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	runes := []rune(s)
	total := maskDigits(runes, func(i, total int) bool {
		switch total {
		case 11:
			return i >= 3 && i < 9
		case 14:
			return true
		default:
			return keepLast(4)(i, total)
		}
	})
	if total == 0 {
		return maskLettersKeepLast(runes)
	}
	return string(runes)
}
