package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerator_Generate_ValidUUID(t *testing.T) {
	g := NewUUIDGenerator()

	id := g.Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, parsed)
}

func TestUUIDGenerator_Generate_Unique(t *testing.T) {
	g := NewUUIDGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := g.Generate()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id generated: %s", id)
		seen[id] = struct{}{}
	}
}

func TestUUIDGenerator_Generate_TimeOrdered(t *testing.T) {
	g := NewUUIDGenerator()

	// v7 ids sort lexicographically by creation time
	first := g.Generate()
	second := g.Generate()

	assert.LessOrEqual(t, first, second)
}
