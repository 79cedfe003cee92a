package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	assert.Len(t, Fields("POST", "/v1/persons"), 64)
	assert.Equal(t, Fields("a", "b"), Fields("a", "b"))
	assert.NotEqual(t, Fields("ab", "c"), Fields("a", "bc"))
	assert.NotEqual(t, Fields("a"), Fields("a", ""))
}

func TestShort(t *testing.T) {
	assert.Len(t, Short("token", 8), 16)
	assert.Equal(t, Short("token", 8), Fields("token")[:16])
	assert.Len(t, Short("token", 0), 64)
	assert.Len(t, Short("token", 99), 64)
}
