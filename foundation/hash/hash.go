// Package hash fingerprints values for keys and request comparison.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const separator = "\x1F"

// Fields is the hex SHA-256 of parts joined by the unit separator, so
// ("ab", "c") and ("a", "bc") differ.
func Fields(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, separator)))
	return hex.EncodeToString(sum[:])
}

// Short is the first n bytes of the SHA-256 of s, hex encoded. It is meant
// for key material that must not appear verbatim in storage keys.
func Short(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	if n <= 0 || n > len(sum) {
		n = len(sum)
	}
	return hex.EncodeToString(sum[:n])
}
