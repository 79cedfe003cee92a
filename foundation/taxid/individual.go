package taxid

var (
	individualWeights1 = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	individualWeights2 = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
)

// IsValidIndividualID reports whether s holds a CPF with valid check digits.
// Separators are ignored; sequences of a single repeated digit are rejected.
//
// Examples:
//
//	"52998224725"    -> true
//	"529.982.247-25" -> true
//	"11111111111"    -> false
//	"1234567890"     -> false (10 digits)
func IsValidIndividualID(s string) bool {
	if s == "" {
		return false
	}
	d := Digits(s)
	if len(d) != IndividualLength || allSame(d) {
		return false
	}
	if mod11(weightedSum(d, individualWeights1)) != int(d[9]-'0') {
		return false
	}
	return mod11(weightedSum(d, individualWeights2)) == int(d[10]-'0')
}

// IndividualCheckDigits computes the two CPF check digits for a 9-digit base.
// ok is false when base does not contain exactly 9 digits.
func IndividualCheckDigits(base string) (digits string, ok bool) {
	d := Digits(base)
	if len(d) != IndividualLength-2 {
		return "", false
	}
	first := mod11(weightedSum(d, individualWeights1))
	d += string(rune('0' + first))
	second := mod11(weightedSum(d, individualWeights2))
	return string([]byte{byte('0' + first), byte('0' + second)}), true
}
