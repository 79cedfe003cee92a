package person

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-fintech/go-cadastro/foundation/errors"
)

func TestPersonType(t *testing.T) {
	assert.Equal(t, Legal, ParsePersonType("LEGAL"))
	assert.Equal(t, Physical, ParsePersonType("legal"))
	assert.Equal(t, Physical, ParsePersonType(""))

	assert.Equal(t, Legal, PersonTypeFromPosition(1))
	assert.Equal(t, Physical, PersonTypeFromPosition(2))
	assert.Equal(t, Physical, PersonTypeFromPosition(-1))
	assert.Equal(t, 1, Legal.Position())
	assert.Equal(t, 0, PersonType("").Position())

	assert.Equal(t, []string{"Pessoa Física", "Pessoa Jurídica"}, PersonTypeDisplayNames())
	assert.Equal(t, "Pessoa Jurídica", Legal.DisplayName())
	assert.False(t, PersonType("OTHER").IsValid())
}

func TestAddressType(t *testing.T) {
	assert.Equal(t, Commercial, ParseAddressType("COMMERCIAL"))
	assert.Equal(t, Residential, ParseAddressType("HOME"))
	assert.Equal(t, Commercial, AddressTypeFromPosition(1))
	assert.Equal(t, Residential, AddressTypeFromPosition(9))
	assert.Equal(t, 1, Commercial.Position())
	assert.Equal(t, []string{"Residencial", "Comercial"}, AddressTypeDisplayNames())
}

func TestPerson_JSONUsesTypeNames(t *testing.T) {
	p := Person{ID: "p-1", Type: Legal, Addresses: []Address{{ID: "a-1", Type: Commercial}}}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"person_type":"LEGAL"`)
	assert.Contains(t, string(b), `"address_type":"COMMERCIAL"`)

	var back Person
	require.NoError(t, json.Unmarshal([]byte(`{"person_type":"ALIEN","addresses":[{"address_type":""}]}`), &back))
	assert.Equal(t, Physical, back.Type)
	assert.Equal(t, Residential, back.Addresses[0].Type)
}

func TestPerson_DisplayName(t *testing.T) {
	p := Person{Type: Physical, Name: "Maria", CompanyName: "Padaria"}
	assert.Equal(t, "Maria", p.DisplayName())
	assert.Equal(t, "", p.TaxID())

	p.Type = Legal
	p.CNPJ = "11444777000161"
	assert.Equal(t, "Padaria", p.DisplayName())
	assert.Equal(t, "11444777000161", p.TaxID())
}

func TestNormalize(t *testing.T) {
	in := Person{
		Type:  Physical,
		Name:  "  Maria   da Silva ",
		CPF:   "529.982.247-25",
		Phone: "(11) 98765-4321",
		Email: " Maria@Example.COM ",
		Addresses: []Address{
			{Type: "", Street: " Av.  Paulista ", ZipCode: "01310-100", State: " sp "},
		},
	}
	out := Normalize(in)

	assert.Equal(t, "Maria da Silva", out.Name)
	assert.Equal(t, "52998224725", out.CPF)
	assert.Equal(t, "11987654321", out.Phone)
	assert.Equal(t, "maria@example.com", out.Email)
	assert.Equal(t, Residential, out.Addresses[0].Type)
	assert.Equal(t, "Av. Paulista", out.Addresses[0].Street)
	assert.Equal(t, "01310100", out.Addresses[0].ZipCode)
	assert.Equal(t, "SP", out.Addresses[0].State)

	// the input is not aliased
	assert.Equal(t, "01310-100", in.Addresses[0].ZipCode)
}

func validPhysical() Person {
	return Person{Type: Physical, Name: "Maria", CPF: "52998224725", Phone: "11987654321", Email: "maria@example.com"}
}

func validLegal() Person {
	return Person{Type: Legal, CompanyName: "Padaria Pão & Cia", CNPJ: "11.444.777/0001-61", Phone: "1133334444", Email: "contato@padaria.com.br"}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Person)
		base    func() Person
		field   string
		message string
	}{
		{name: "valid individual", base: validPhysical},
		{name: "valid organization", base: validLegal},
		{name: "missing type", base: validPhysical, mutate: func(p *Person) { p.Type = "" }, field: "person_type", message: "Tipo de pessoa é obrigatório"},
		{name: "missing name", base: validPhysical, mutate: func(p *Person) { p.Name = "  " }, field: "name", message: "Nome é obrigatório"},
		{name: "missing cpf", base: validPhysical, mutate: func(p *Person) { p.CPF = "" }, field: "cpf", message: "CPF é obrigatório"},
		{name: "invalid cpf", base: validPhysical, mutate: func(p *Person) { p.CPF = "111.111.111-11" }, field: "cpf", message: "CPF inválido. Deve conter 11 dígitos válidos"},
		{name: "missing company", base: validLegal, mutate: func(p *Person) { p.CompanyName = "" }, field: "company_name", message: "Nome da empresa é obrigatório"},
		{name: "missing cnpj", base: validLegal, mutate: func(p *Person) { p.CNPJ = "" }, field: "cnpj", message: "CNPJ é obrigatório"},
		{name: "invalid cnpj", base: validLegal, mutate: func(p *Person) { p.CNPJ = "11444777000162" }, field: "cnpj", message: "CNPJ inválido. Deve conter 14 dígitos válidos"},
		{name: "legal ignores cpf", base: validLegal, mutate: func(p *Person) { p.CPF = "123" }},
		{name: "missing phone", base: validPhysical, mutate: func(p *Person) { p.Phone = "" }, field: "phone_number", message: "Telefone é obrigatório"},
		{name: "short phone", base: validPhysical, mutate: func(p *Person) { p.Phone = "119876543" }, field: "phone_number", message: "Telefone inválido. Deve conter 10 ou 11 dígitos"},
		{name: "missing email", base: validPhysical, mutate: func(p *Person) { p.Email = "" }, field: "email", message: "Email é obrigatório"},
		{name: "invalid email", base: validPhysical, mutate: func(p *Person) { p.Email = "not-an-email" }, field: "email", message: "Email inválido"},
		{name: "name before cpf", base: validPhysical, mutate: func(p *Person) { p.Name = ""; p.CPF = "" }, field: "name", message: "Nome é obrigatório"},
		{name: "bad zip code", base: validPhysical, mutate: func(p *Person) { p.Addresses = []Address{{ZipCode: "0131"}} }, field: "addresses[0].zip_code", message: "CEP inválido. Deve conter 8 dígitos"},
		{name: "unknown uf", base: validPhysical, mutate: func(p *Person) { p.Addresses = []Address{{State: "XX"}} }, field: "addresses[0].state", message: "UF inválida"},
		{name: "digits in name", base: validPhysical, mutate: func(p *Person) { p.Name = "Maria 2" }},
		{name: "symbols in company", base: validLegal, mutate: func(p *Person) { p.CompanyName = "Loja 100% Brasil" }},
		{name: "plus in company", base: validLegal, mutate: func(p *Person) { p.CompanyName = "Comércio+Serviços Ltda" }},
		{name: "control char in name", base: validPhysical, mutate: func(p *Person) { p.Name = "Maria\x00" }, field: "name", message: "Nome inválido"},
		{name: "empty address is fine", base: validPhysical, mutate: func(p *Person) { p.Addresses = []Address{{}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.base()
			if tt.mutate != nil {
				tt.mutate(&p)
			}
			err := Validate(p)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var ie errors.InvariantError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
			assert.Equal(t, tt.message, ie.Message)
		})
	}
}

func TestValidate_MapsToViolation(t *testing.T) {
	p := validPhysical()
	p.CPF = "52998224724"

	resp := errors.ToErrorResponse(Validate(p))
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, "cpf", resp.Violations[0].Field)
	assert.Equal(t, "invalid_cpf", resp.Violations[0].Reason)
}

func TestDeviceName(t *testing.T) {
	assert.Equal(t, "Samsung SM-G991B", DeviceName("samsung", "SM-G991B"))
	assert.Equal(t, "Google Pixel 7", DeviceName("Google", "Pixel 7"))
	assert.Equal(t, "Motorola moto g(60)", DeviceName("motorola", "moto g(60)"))
	assert.Equal(t, "Xiaomi 13", DeviceName("Xiaomi", "Xiaomi 13"))
	assert.Equal(t, "Model", DeviceName("", "model"))
}

func TestFormatZipCode(t *testing.T) {
	assert.Equal(t, "01310-100", FormatZipCode("01310100"))
	assert.Equal(t, "01310-100", FormatZipCode("01310-100"))
	assert.Equal(t, "0131", FormatZipCode("0131"))
	assert.Equal(t, "", FormatZipCode(""))
}
