package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vortex-fintech/go-cadastro/foundation/contactutil"
	"github.com/vortex-fintech/go-cadastro/foundation/geo"
	"github.com/vortex-fintech/go-cadastro/foundation/taxid"
)

var v *validator.Validate

func init() {
	v = validator.New()
	mustRegister("cpf", func(fl validator.FieldLevel) bool {
		return taxid.IsValidIndividualID(fl.Field().String())
	})
	mustRegister("cnpj", func(fl validator.FieldLevel) bool {
		return taxid.IsValidOrganizationID(fl.Field().String())
	})
	mustRegister("br_phone", func(fl validator.FieldLevel) bool {
		return contactutil.IsValidPhone(fl.Field().String())
	})
	mustRegister("br_email", func(fl validator.FieldLevel) bool {
		return contactutil.IsValidEmail(fl.Field().String())
	})
	mustRegister("cep", func(fl validator.FieldLevel) bool {
		return len(taxid.Digits(fl.Field().String())) == 8
	})
	mustRegister("uf", func(fl validator.FieldLevel) bool {
		return geo.IsUF(fl.Field().String())
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func Instance() *validator.Validate {
	return v
}

// Validate returns field path -> error code, or nil when i is valid.
// Paths are relative to the root struct ("Addresses[0].ZipCode").
func Validate(i any) map[string]string {
	if err := v.Struct(i); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			out := make(map[string]string, len(errs))
			for _, e := range errs {
				out[fieldPath(e.StructNamespace())] = mapTagToCode(e.Tag())
			}
			return out
		}
		return map[string]string{"_error": "validation_failed"}
	}
	return nil
}

// Var validates a single value against tag and returns its error code, or ""
// when the value passes.
func Var(value any, tag string) string {
	err := v.Var(value, tag)
	if err == nil {
		return ""
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return mapTagToCode(errs[0].Tag())
	}
	return "invalid"
}

func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
