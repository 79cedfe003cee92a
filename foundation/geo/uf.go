// Package geo holds Brazilian federative unit codes.
package geo

import "strings"

var ufs = map[string]string{
	"AC": "Acre", "AL": "Alagoas", "AP": "Amapá", "AM": "Amazonas",
	"BA": "Bahia", "CE": "Ceará", "DF": "Distrito Federal", "ES": "Espírito Santo",
	"GO": "Goiás", "MA": "Maranhão", "MT": "Mato Grosso", "MS": "Mato Grosso do Sul",
	"MG": "Minas Gerais", "PA": "Pará", "PB": "Paraíba", "PR": "Paraná",
	"PE": "Pernambuco", "PI": "Piauí", "RJ": "Rio de Janeiro", "RN": "Rio Grande do Norte",
	"RS": "Rio Grande do Sul", "RO": "Rondônia", "RR": "Roraima", "SC": "Santa Catarina",
	"SP": "São Paulo", "SE": "Sergipe", "TO": "Tocantins",
}

// NormalizeUF trims and uppercases code and reports whether it names one of
// the 27 units.
func NormalizeUF(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	_, ok := ufs[c]
	return c, ok
}

func IsUF(code string) bool {
	_, ok := NormalizeUF(code)
	return ok
}

// UFName is the unit's full name, or "" for unknown codes.
func UFName(code string) string {
	c, _ := NormalizeUF(code)
	return ufs[c]
}
