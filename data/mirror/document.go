package mirror

import (
	"github.com/vortex-fintech/go-cadastro/foundation/contactutil"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
	"github.com/vortex-fintech/go-cadastro/person"
)

// personDoc is the stored shape of a person. Field names are camelCase and
// createdAt is epoch millis, which is what mobile readers of the mirror use.
// phoneE164 is the dialable form for push and SMS senders.
type personDoc struct {
	ID             string  `json:"id"`
	PersonType     string  `json:"personType"`
	Name           string  `json:"name"`
	CPF            string  `json:"cpf"`
	CompanyName    string  `json:"companyName"`
	CNPJ           string  `json:"cnpj"`
	PhoneNumber    string  `json:"phoneNumber"`
	PhoneE164      string  `json:"phoneE164"`
	Email          string  `json:"email"`
	CreatedAt      int64   `json:"createdAt"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DeviceName     string  `json:"deviceName"`
	CreatedByToken string  `json:"createdByToken"`
	HasAddresses   bool    `json:"hasAddresses"`
	AddressCount   int     `json:"addressCount"`
}

type addressDoc struct {
	ID           string `json:"id"`
	AddressType  string `json:"addressType"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	ZipCode      string `json:"zipCode"`
	ZipFormatted string `json:"zipCodeFormatted"`
	City         string `json:"city"`
	State        string `json:"state"`
}

func newPersonDoc(p person.Person, token string) personDoc {
	return personDoc{
		ID:             p.ID,
		PersonType:     p.Type.String(),
		Name:           p.Name,
		CPF:            p.CPF,
		CompanyName:    p.CompanyName,
		CNPJ:           p.CNPJ,
		PhoneNumber:    p.Phone,
		PhoneE164:      contactutil.NormalizePhone(p.Phone),
		Email:          p.Email,
		CreatedAt:      timeutil.Millis(p.CreatedAt),
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		DeviceName:     p.DeviceName,
		CreatedByToken: token,
		HasAddresses:   p.HasAddresses(),
		AddressCount:   len(p.Addresses),
	}
}

func newAddressDoc(a person.Address) addressDoc {
	return addressDoc{
		ID:           a.ID,
		AddressType:  a.Type.String(),
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		ZipCode:      a.ZipCode,
		ZipFormatted: person.FormatZipCode(a.ZipCode),
		City:         a.City,
		State:        a.State,
	}
}
