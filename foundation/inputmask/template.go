// Package inputmask reformats digit input into punctuated display text while
// the user types, for the CPF, CNPJ, phone and CEP fields.
//
// The engine is pure: Apply takes the previous unmasked value and returns the
// next one. A Field bundles a template with that state for one edit session.
package inputmask

import "strings"

// Placeholder marks a template position that consumes one input digit.
const Placeholder = '#'

// Template is an ordered run of placeholders and literal characters.
type Template struct {
	name    string
	pattern string
	// clampCursor keeps the cursor within the field length.
	clampCursor bool
}

var (
	IndividualID   = Template{name: "individual_id", pattern: "###.###.###-##"}
	OrganizationID = Template{name: "organization_id", pattern: "##.###.###/####-##"}
	Phone          = Template{name: "phone", pattern: "(##) #####-####"}
	PostalCode     = Template{name: "postal_code", pattern: "#####-###", clampCursor: true}
)

var templates = map[string]Template{
	IndividualID.name:   IndividualID,
	OrganizationID.name: OrganizationID,
	Phone.name:          Phone,
	PostalCode.name:     PostalCode,
}

// Lookup returns the template registered under name
// ("individual_id", "organization_id", "phone", "postal_code").
func Lookup(name string) (Template, bool) {
	t, ok := templates[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

func (t Template) Name() string    { return t.name }
func (t Template) Pattern() string { return t.pattern }
func (t Template) IsZero() bool    { return t.pattern == "" }

// Capacity is the number of placeholders, i.e. the max digits the template holds.
func (t Template) Capacity() int {
	return strings.Count(t.pattern, string(Placeholder))
}

// Clip drops digits beyond the template capacity.
func (t Template) Clip(digits string) string {
	if n := t.Capacity(); len(digits) > n {
		return digits[:n]
	}
	return digits
}

// Format masks digits from scratch, as if they were typed into an empty field.
func (t Template) Format(digits string) string {
	return Apply(t, State{}, digits).Text
}

// Unmask keeps only ASCII digits.
func Unmask(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
