package person

// PersonType is the closed set of registrant kinds. Unknown input parses to
// Physical, the first variant.
type PersonType string

const (
	Physical PersonType = "PHYSICAL"
	Legal    PersonType = "LEGAL"
)

var personTypes = []PersonType{Physical, Legal}

var personTypeNames = map[PersonType]string{
	Physical: "Pessoa Física",
	Legal:    "Pessoa Jurídica",
}

func ParsePersonType(s string) PersonType {
	for _, t := range personTypes {
		if string(t) == s {
			return t
		}
	}
	return Physical
}

// PersonTypeFromPosition maps a selector index to a type.
func PersonTypeFromPosition(i int) PersonType {
	if i < 0 || i >= len(personTypes) {
		return Physical
	}
	return personTypes[i]
}

func PersonTypeDisplayNames() []string {
	out := make([]string, len(personTypes))
	for i, t := range personTypes {
		out[i] = personTypeNames[t]
	}
	return out
}

func (t PersonType) Position() int {
	for i, v := range personTypes {
		if v == t {
			return i
		}
	}
	return 0
}

func (t PersonType) IsValid() bool       { _, ok := personTypeNames[t]; return ok }
func (t PersonType) DisplayName() string { return personTypeNames[t] }
func (t PersonType) String() string      { return string(t) }

func (t *PersonType) UnmarshalText(b []byte) error {
	*t = ParsePersonType(string(b))
	return nil
}

// AddressType is the closed set of address kinds, defaulting to Residential.
type AddressType string

const (
	Residential AddressType = "RESIDENTIAL"
	Commercial  AddressType = "COMMERCIAL"
)

var addressTypes = []AddressType{Residential, Commercial}

var addressTypeNames = map[AddressType]string{
	Residential: "Residencial",
	Commercial:  "Comercial",
}

func ParseAddressType(s string) AddressType {
	for _, t := range addressTypes {
		if string(t) == s {
			return t
		}
	}
	return Residential
}

func AddressTypeFromPosition(i int) AddressType {
	if i < 0 || i >= len(addressTypes) {
		return Residential
	}
	return addressTypes[i]
}

func AddressTypeDisplayNames() []string {
	out := make([]string, len(addressTypes))
	for i, t := range addressTypes {
		out[i] = addressTypeNames[t]
	}
	return out
}

func (t AddressType) Position() int {
	for i, v := range addressTypes {
		if v == t {
			return i
		}
	}
	return 0
}

func (t AddressType) IsValid() bool       { _, ok := addressTypeNames[t]; return ok }
func (t AddressType) DisplayName() string { return addressTypeNames[t] }
func (t AddressType) String() string      { return string(t) }

func (t *AddressType) UnmarshalText(b []byte) error {
	*t = ParseAddressType(string(b))
	return nil
}
