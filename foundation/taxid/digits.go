// Package taxid validates Brazilian tax identifiers: the 11-digit individual
// ID (CPF) and the 14-digit organization ID (CNPJ).
//
// Every check accepts formatted input ("529.982.247-25") and never errors;
// malformed input simply reports false.
package taxid

const (
	IndividualLength   = 11
	OrganizationLength = 14
)

// Digits keeps only ASCII digits from s.
func Digits(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b = append(b, c)
		}
	}
	return string(b)
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

// mod11 turns a weighted sum into a check digit: 0 when the remainder is
// below 2, otherwise 11 minus the remainder.
func mod11(sum int) int {
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

func weightedSum(d string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(d[i]-'0') * w
	}
	return sum
}
