// Package person is the registration model: individuals and organizations
// with their contact data and addresses.
package person

import (
	"strings"
	"time"

	"github.com/vortex-fintech/go-cadastro/foundation/contactutil"
	"github.com/vortex-fintech/go-cadastro/foundation/geo"
	"github.com/vortex-fintech/go-cadastro/foundation/taxid"
	"github.com/vortex-fintech/go-cadastro/foundation/textutil"
)

type Address struct {
	ID           string      `json:"id"`
	Type         AddressType `json:"address_type"`
	Street       string      `json:"street"`
	Number       string      `json:"number"`
	Complement   string      `json:"complement"`
	Neighborhood string      `json:"neighborhood"`
	ZipCode      string      `json:"zip_code"`
	City         string      `json:"city"`
	State        string      `json:"state"`
}

// Person is a registrant. Identifier and phone fields hold digits only once
// normalized; Name/CPF belong to Physical, CompanyName/CNPJ to Legal.
type Person struct {
	ID          string     `json:"id"`
	Type        PersonType `json:"person_type"`
	Name        string     `json:"name"`
	CPF         string     `json:"cpf"`
	CompanyName string     `json:"company_name"`
	CNPJ        string     `json:"cnpj"`
	Phone       string     `json:"phone_number"`
	Email       string     `json:"email"`
	Addresses   []Address  `json:"addresses"`
	CreatedAt   time.Time  `json:"created_at"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	DeviceName  string     `json:"device_name"`
}

// DisplayName is the name for individuals and the company name for
// organizations.
func (p Person) DisplayName() string {
	if p.Type == Legal {
		return p.CompanyName
	}
	return p.Name
}

// TaxID is the identifier that applies to the person's type.
func (p Person) TaxID() string {
	if p.Type == Legal {
		return p.CNPJ
	}
	return p.CPF
}

func (p Person) HasAddresses() bool { return len(p.Addresses) > 0 }

// Clone returns a copy that shares no slice with p.
func (p Person) Clone() Person {
	if p.Addresses != nil {
		p.Addresses = append([]Address(nil), p.Addresses...)
	}
	return p
}

// Normalize strips masks from identifiers, phone and postal codes, collapses
// whitespace in text fields and lowercases the e-mail. Values that would not
// survive normalization are only trimmed, so Validate still sees them.
func Normalize(p Person) Person {
	p = p.Clone()
	p.Name = normalizeText(p.Name, textutil.PersonName)
	p.CompanyName = normalizeText(p.CompanyName, textutil.CompanyName)
	p.CPF = taxid.Digits(p.CPF)
	p.CNPJ = taxid.Digits(p.CNPJ)
	p.Phone = taxid.Digits(p.Phone)
	p.Email = contactutil.NormalizeEmail(p.Email)
	p.DeviceName = strings.TrimSpace(p.DeviceName)
	for i := range p.Addresses {
		p.Addresses[i] = NormalizeAddress(p.Addresses[i])
	}
	return p
}

// NormalizeAddress applies the address part of Normalize. Unknown address
// types become Residential.
func NormalizeAddress(a Address) Address {
	if !a.Type.IsValid() {
		a.Type = Residential
	}
	a.Street = normalizeText(a.Street, textutil.AddressLine)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = normalizeText(a.Complement, textutil.AddressLine)
	a.Neighborhood = normalizeText(a.Neighborhood, textutil.AddressLine)
	a.ZipCode = taxid.Digits(a.ZipCode)
	a.City = normalizeText(a.City, textutil.AddressLine)
	a.State, _ = geo.NormalizeUF(a.State)
	return a
}

func normalizeText(s string, p textutil.Policy) string {
	if out, err := textutil.Normalize(s, p); err == nil {
		return out
	}
	return strings.TrimSpace(s)
}
