package validator

// Codes reported for failing tags; unknown tags report "invalid".
var tagMap = map[string]string{
	"required": "required",
	"email":    "invalid_email",
	"min":      "too_short",
	"max":      "too_long",
	"len":      "invalid_length",
	"numeric":  "only_numbers_allowed",
	"oneof":    "invalid_choice",

	"cpf":      "invalid_cpf",
	"cnpj":     "invalid_cnpj",
	"br_phone": "invalid_phone",
	"br_email": "invalid_email",
	"cep":      "invalid_cep",
	"uf":       "invalid_uf",
}

func mapTagToCode(tag string) string {
	if code, ok := tagMap[tag]; ok {
		return code
	}
	return "invalid"
}
