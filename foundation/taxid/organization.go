package taxid

var (
	organizationWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	organizationWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// IsValidOrganizationID reports whether s holds a CNPJ with valid check digits.
//
// Examples:
//
//	"11444777000161"     -> true
//	"11.444.777/0001-61" -> true
//	"00000000000000"     -> false
func IsValidOrganizationID(s string) bool {
	if s == "" {
		return false
	}
	d := Digits(s)
	if len(d) != OrganizationLength || allSame(d) {
		return false
	}
	if mod11(weightedSum(d, organizationWeights1)) != int(d[12]-'0') {
		return false
	}
	return mod11(weightedSum(d, organizationWeights2)) == int(d[13]-'0')
}

// OrganizationCheckDigits computes the two CNPJ check digits for a 12-digit base.
func OrganizationCheckDigits(base string) (digits string, ok bool) {
	d := Digits(base)
	if len(d) != OrganizationLength-2 {
		return "", false
	}
	first := mod11(weightedSum(d, organizationWeights1))
	d += string(rune('0' + first))
	second := mod11(weightedSum(d, organizationWeights2))
	return string([]byte{byte('0' + first), byte('0' + second)}), true
}
