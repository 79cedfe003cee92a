package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUF(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{" sp ", "SP", true},
		{"df", "DF", true},
		{"To", "TO", true},
		{"XX", "XX", false},
		{"", "", false},
		{"SPA", "SPA", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeUF(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Len(t, ufs, 27)
}

func TestUFName(t *testing.T) {
	assert.Equal(t, "São Paulo", UFName("sp"))
	assert.Equal(t, "Distrito Federal", UFName("DF"))
	assert.Empty(t, UFName("ZZ"))
	assert.True(t, IsUF("rj"))
	assert.False(t, IsUF("R"))
}
