package model

import (
	"testing"

	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/codec"
	"github.com/stretchr/testify/require"
)

func stringAttr(name string, def any) AttributeSpec {
	return AttributeSpec{Name: name, Kind: attribute.Kind{Name: "string", Codec: codec.String(), Default: def}}
}

// suffixAttr derives name from dep + suffix while name is unset.
func suffixAttr(name, dep, suffix string) AttributeSpec {
	return AttributeSpec{Name: name, Kind: attribute.Kind{
		Name:      "string",
		Codec:     codec.String(),
		DependsOn: []string{dep},
		Derive: func(s attribute.Scope) (any, error) {
			if self := s.Self(); self.IsSet {
				return self.Value, nil
			}
			v, err := s.Get(dep)
			if err != nil {
				return nil, err
			}
			str, _ := v.(string)
			return str + suffix, nil
		},
	}}
}

func mustDefinition(t *testing.T, name string, specs ...AttributeSpec) *Definition {
	t.Helper()
	def, err := NewDefinition(name, specs...)
	require.NoError(t, err)
	return def
}

func mustModel(t *testing.T, def *Definition, values map[string]any, opts ...Option) *Model {
	t.Helper()
	m, err := New(def, values, opts...)
	require.NoError(t, err)
	return m
}

func mustGet(t *testing.T, m *Model, name string) any {
	t.Helper()
	v, err := m.Get(name)
	require.NoError(t, err)
	return v
}
