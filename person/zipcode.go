package person

import (
	"github.com/vortex-fintech/go-cadastro/foundation/inputmask"
	"github.com/vortex-fintech/go-cadastro/foundation/taxid"
)

const ZipCodeLength = 8

// FormatZipCode renders a complete postal code as #####-###. Anything else
// comes back as its bare digits.
func FormatZipCode(s string) string {
	d := taxid.Digits(s)
	if len(d) != ZipCodeLength {
		return d
	}
	return inputmask.PostalCode.Format(d)
}
