package person

import (
	"fmt"
	"strings"

	"github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/foundation/textutil"
	"github.com/vortex-fintech/go-cadastro/foundation/validator"
)

// Validate checks p in form order and reports the first failure as a
// field invariant carrying the message shown to the user.
func Validate(p Person) error {
	switch p.Type {
	case Physical:
		if strings.TrimSpace(p.Name) == "" {
			return invalid("name", "required", "Nome é obrigatório")
		}
		if _, err := textutil.Normalize(p.Name, textutil.PersonName); err != nil {
			return invalid("name", "invalid_name", "Nome inválido")
		}
		if strings.TrimSpace(p.CPF) == "" {
			return invalid("cpf", "required", "CPF é obrigatório")
		}
		if code := validator.Var(p.CPF, "cpf"); code != "" {
			return invalid("cpf", code, "CPF inválido. Deve conter 11 dígitos válidos")
		}
	case Legal:
		if strings.TrimSpace(p.CompanyName) == "" {
			return invalid("company_name", "required", "Nome da empresa é obrigatório")
		}
		if _, err := textutil.Normalize(p.CompanyName, textutil.CompanyName); err != nil {
			return invalid("company_name", "invalid_name", "Nome da empresa inválido")
		}
		if strings.TrimSpace(p.CNPJ) == "" {
			return invalid("cnpj", "required", "CNPJ é obrigatório")
		}
		if code := validator.Var(p.CNPJ, "cnpj"); code != "" {
			return invalid("cnpj", code, "CNPJ inválido. Deve conter 14 dígitos válidos")
		}
	default:
		return invalid("person_type", "required", "Tipo de pessoa é obrigatório")
	}

	if strings.TrimSpace(p.Phone) == "" {
		return invalid("phone_number", "required", "Telefone é obrigatório")
	}
	if code := validator.Var(p.Phone, "br_phone"); code != "" {
		return invalid("phone_number", code, "Telefone inválido. Deve conter 10 ou 11 dígitos")
	}
	if strings.TrimSpace(p.Email) == "" {
		return invalid("email", "required", "Email é obrigatório")
	}
	if code := validator.Var(p.Email, "br_email"); code != "" {
		return invalid("email", code, "Email inválido")
	}

	for i, a := range p.Addresses {
		if err := ValidateAddress(a); err != nil {
			ie := err.(errors.InvariantError)
			return invalid(fmt.Sprintf("addresses[%d].%s", i, ie.Field), ie.Reason, ie.Message)
		}
	}
	return nil
}

// ValidateAddress only rejects malformed postal codes, unknown UFs and free
// text that cannot be stored; every address field is optional.
func ValidateAddress(a Address) error {
	if a.ZipCode != "" {
		if code := validator.Var(a.ZipCode, "cep"); code != "" {
			return invalid("zip_code", code, "CEP inválido. Deve conter 8 dígitos")
		}
	}
	if a.State != "" {
		if code := validator.Var(a.State, "uf"); code != "" {
			return invalid("state", code, "UF inválida")
		}
	}
	for _, f := range []struct{ name, value string }{
		{"street", a.Street},
		{"complement", a.Complement},
		{"neighborhood", a.Neighborhood},
		{"city", a.City},
	} {
		if _, err := textutil.Normalize(f.value, textutil.AddressLine); err != nil {
			return invalid(f.name, "invalid_text", "Endereço contém caracteres inválidos")
		}
	}
	return nil
}

func invalid(field, reason, message string) error {
	return errors.InvariantError{Field: field, Reason: reason, Message: message}
}
