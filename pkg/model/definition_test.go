package model

import (
	"errors"
	"testing"

	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefinition_DerivationOrder(t *testing.T) {
	// c depends on b which depends on a; c is declared first.
	def, err := NewDefinition("chain",
		suffixAttr("c", "b", "c"),
		suffixAttr("b", "a", "b"),
		stringAttr("a", "a"),
		suffixAttr("d", "a", "d"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c", "d"}, def.DerivationOrder())
	assert.Equal(t, []string{"c", "b", "a", "d"}, def.Names())
	assert.Equal(t, []string{"a"}, def.Dependencies()["b"])
}

func TestNewDefinition_Errors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		_, err := NewDefinition("loop",
			suffixAttr("a", "b", "!"),
			suffixAttr("b", "a", "!"),
		)
		var cycle *CycleError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
		assert.Contains(t, err.Error(), "a -> b -> a")
	})

	t.Run("unknown dependency", func(t *testing.T) {
		_, err := NewDefinition("m", suffixAttr("a", "missing", "!"))
		assert.ErrorIs(t, err, domain.ErrUnknownAttribute)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := NewDefinition("m", stringAttr("a", nil), stringAttr("a", nil))
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("unnamed", func(t *testing.T) {
		_, err := NewDefinition("m", stringAttr("", nil))
		assert.Error(t, err)
		_, err = NewDefinition("", stringAttr("a", nil))
		assert.Error(t, err)
	})

	t.Run("incomplete nested", func(t *testing.T) {
		_, err := NewDefinition("m", AttributeSpec{Name: "n", Kind: attribute.Kind{Nested: &attribute.NestedSpec{}}})
		assert.Error(t, err)
	})
}

func TestNewPersistentDefinition_AddsID(t *testing.T) {
	def, err := NewPersistentDefinition("p", stringAttr("a", nil))
	require.NoError(t, err)

	assert.True(t, def.Persistent)
	assert.Equal(t, []string{domain.IDAttribute, "a"}, def.Names())

	_, ok := def.Attribute(domain.IDAttribute)
	assert.True(t, ok)
	_, ok = def.Attribute("nope")
	assert.False(t, ok)
}
