package person

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DeviceName renders the registering device: the model alone when it
// already starts with the manufacturer ("Samsung Galaxy"), otherwise
// "Manufacturer model".
func DeviceName(manufacturer, model string) string {
	if strings.HasPrefix(model, manufacturer) {
		return capitalize(model)
	}
	return capitalize(manufacturer) + " " + model
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
