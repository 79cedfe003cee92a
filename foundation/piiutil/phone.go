package piiutil

import "strings"

// MaskPhone masks a phone value for logs while preserving its punctuation.
// Full Brazilian numbers keep the area code and the last 4 digits; other
// values keep the last 4 digits, or only the last one when 4 or fewer.
//
//	"(11) 98765-4321"   -> "(11) *****-4321"
//	"+5511987654321"    -> "+55*******4321"
//	"98765"             -> "*8765"
//	"123"               -> "**3"
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	runes := []rune(phone)
	total := maskDigits(runes, func(i, total int) bool {
		switch {
		case total >= 10:
			return i < 2 || i >= total-4
		case total > 4:
			return i >= total-4
		default:
			return i >= total-1
		}
	})
	if total == 0 {
		return maskLettersKeepLast(runes)
	}
	return string(runes)
}
