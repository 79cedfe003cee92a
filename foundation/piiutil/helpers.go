package piiutil

import "unicode"

// maskDigits replaces with '*' every digit whose position among the digits
// of runes is rejected by keep. It returns the number of digits seen.
func maskDigits(runes []rune, keep func(i, total int) bool) int {
	total := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			total++
		}
	}

	i := 0
	for j, r := range runes {
		if !unicode.IsDigit(r) {
			continue
		}
		if !keep(i, total) {
			runes[j] = '*'
		}
		i++
	}
	return total
}

// keepLast keeps the trailing n digits.
func keepLast(n int) func(i, total int) bool {
	return func(i, total int) bool { return i >= total-n }
}

// maskLettersKeepLast masks every letter and digit except the last one.
func maskLettersKeepLast(runes []rune) string {
	last := -1
	for j := len(runes) - 1; j >= 0; j-- {
		if unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) {
			last = j
			break
		}
	}
	for j := 0; j < last; j++ {
		if unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) {
			runes[j] = '*'
		}
	}
	return string(runes)
}
