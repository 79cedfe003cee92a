package person

import (
	"time"

	"github.com/vortex-fintech/go-cadastro/foundation/idutil"
	"github.com/vortex-fintech/go-cadastro/foundation/inputmask"
)

// Draft is one registration form being filled in. Identifier, phone and
// postal-code inputs go through masked fields so the text echoed back to the
// client is already punctuated. A Draft is not safe for concurrent use.
type Draft struct {
	ID          string
	Type        PersonType
	Name        string
	CompanyName string
	Email       string
	Latitude    float64
	Longitude   float64
	DeviceName  string
	CreatedAt   time.Time

	cpf       *inputmask.Field
	cnpj      *inputmask.Field
	phone     *inputmask.Field
	addresses []draftAddress
}

type draftAddress struct {
	Address
	zip *inputmask.Field
}

func NewDraft() *Draft {
	return &Draft{
		Type:  Physical,
		cpf:   &inputmask.Field{Template: inputmask.IndividualID, Strict: true},
		cnpj:  &inputmask.Field{Template: inputmask.OrganizationID, Strict: true},
		phone: &inputmask.Field{Template: inputmask.Phone, Strict: true},
	}
}

// LoadDraft seeds a draft from a stored person for editing.
func LoadDraft(p Person) *Draft {
	d := NewDraft()
	d.ID = p.ID
	d.Type = p.Type
	if !d.Type.IsValid() {
		d.Type = Physical
	}
	d.Name = p.Name
	d.CompanyName = p.CompanyName
	d.Email = p.Email
	d.Latitude, d.Longitude = p.Latitude, p.Longitude
	d.DeviceName = p.DeviceName
	d.CreatedAt = p.CreatedAt
	d.cpf.Set(p.CPF)
	d.cnpj.Set(p.CNPJ)
	d.phone.Set(p.Phone)
	for _, a := range p.Addresses {
		d.addresses = append(d.addresses, newDraftAddress(a))
	}
	return d
}

func newDraftAddress(a Address) draftAddress {
	zip := &inputmask.Field{Template: inputmask.PostalCode, Strict: true}
	zip.Set(a.ZipCode)
	a.ZipCode = zip.Text()
	return draftAddress{Address: a, zip: zip}
}

func (d *Draft) SetType(t PersonType)                 { d.Type = t }
func (d *Draft) SetName(s string)                     { d.Name = s }
func (d *Draft) SetCompanyName(s string)              { d.CompanyName = s }
func (d *Draft) SetEmail(s string)                    { d.Email = s }
func (d *Draft) SetLocation(lat, lng float64)         { d.Latitude, d.Longitude = lat, lng }
func (d *Draft) SetDevice(manufacturer, model string) { d.DeviceName = DeviceName(manufacturer, model) }

func (d *Draft) TypeCPF(raw string) inputmask.Result   { return d.cpf.Edit(raw) }
func (d *Draft) TypeCNPJ(raw string) inputmask.Result  { return d.cnpj.Edit(raw) }
func (d *Draft) TypePhone(raw string) inputmask.Result { return d.phone.Edit(raw) }

// AddAddress appends an empty residential address with a fresh ID.
func (d *Draft) AddAddress() (Address, error) {
	id, err := idutil.New()
	if err != nil {
		return Address{}, err
	}
	da := newDraftAddress(Address{ID: id, Type: Residential})
	d.addresses = append(d.addresses, da)
	return da.Address, nil
}

// UpdateAddress replaces the address at pos, keeping its ID when a has none.
// Out-of-range positions are ignored.
func (d *Draft) UpdateAddress(pos int, a Address) bool {
	if pos < 0 || pos >= len(d.addresses) {
		return false
	}
	if a.ID == "" {
		a.ID = d.addresses[pos].ID
	}
	d.addresses[pos] = newDraftAddress(a)
	return true
}

// RemoveAddress drops the address at pos. Out-of-range positions are ignored.
func (d *Draft) RemoveAddress(pos int) bool {
	if pos < 0 || pos >= len(d.addresses) {
		return false
	}
	d.addresses = append(d.addresses[:pos], d.addresses[pos+1:]...)
	return true
}

// TypeZipCode masks postal-code input for the address at pos. complete is
// true once the code has all its digits, which is when a lookup should run.
func (d *Draft) TypeZipCode(pos int, raw string) (res inputmask.Result, complete bool, ok bool) {
	if pos < 0 || pos >= len(d.addresses) {
		return inputmask.Result{}, false, false
	}
	a := &d.addresses[pos]
	res = a.zip.Edit(raw)
	a.ZipCode = res.Text
	return res, len(a.zip.Digits()) == ZipCodeLength, true
}

func (d *Draft) Addresses() []Address {
	out := make([]Address, len(d.addresses))
	for i, a := range d.addresses {
		out[i] = a.Address
	}
	return out
}

// Person builds the record with identifiers, phone and postal codes
// unmasked.
func (d *Draft) Person() Person {
	p := Person{
		ID:          d.ID,
		Type:        d.Type,
		Name:        d.Name,
		CPF:         d.cpf.Digits(),
		CompanyName: d.CompanyName,
		CNPJ:        d.cnpj.Digits(),
		Phone:       d.phone.Digits(),
		Email:       d.Email,
		CreatedAt:   d.CreatedAt,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		DeviceName:  d.DeviceName,
	}
	for _, a := range d.addresses {
		addr := a.Address
		addr.ZipCode = a.zip.Digits()
		p.Addresses = append(p.Addresses, addr)
	}
	return p
}
