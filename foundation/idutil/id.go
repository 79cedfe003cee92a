// Package idutil issues record identifiers: UUID v7 strings, so that keys
// sort in creation order.
package idutil

import (
	"fmt"

	"github.com/google/uuid"
)

func New() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("idutil: %w", err)
	}
	return u.String(), nil
}

// MustNew panics when the random source fails.
func MustNew() string {
	id, err := New()
	if err != nil {
		panic(err)
	}
	return id
}

// Valid reports whether s is a canonical, non-nil UUID string.
func Valid(s string) bool {
	u, err := uuid.Parse(s)
	return err == nil && u != uuid.Nil && u.String() == s
}
