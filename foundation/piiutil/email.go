package piiutil

import "strings"

// MaskEmail masks the local part of an e-mail, keeping its first character
// and the whole domain.
//
//	"joao.silva@example.com" -> "j*********@example.com"
//	"u@example.com"          -> "u@example.com"
//	"weird"                  -> "w***d"
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return maskToken(email)
	}

	local := []rune(email[:at])
	for i := 1; i < len(local); i++ {
		local[i] = '*'
	}
	return string(local) + email[at:]
}

// maskToken keeps the first and last rune of s.
func maskToken(s string) string {
	runes := []rune(s)
	for i := 1; i < len(runes)-1; i++ {
		runes[i] = '*'
	}
	if len(runes) == 2 {
		runes[1] = '*'
	}
	return string(runes)
}
