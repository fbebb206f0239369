package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/internal/presentation/graph"
	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/dsl"
	"github.com/aretw0/facet/pkg/model"
)

func TestGenerateMermaid(t *testing.T) {
	inner := dsl.New("address").MustBuild()

	b := dsl.New("person").Persistent()
	b.Add("first-name").AsString()
	b.Add("last").AsString()
	b.Add("full").AsString().Derive(func(attribute.Scope) (any, error) { return "", nil }, "first-name", "last")
	b.Add("home").Nested(inner)
	b.Add("untyped")
	def, err := b.Build()
	require.NoError(t, err)

	out := graph.GenerateMermaid(def, nil)

	tests := []struct {
		name     string
		contains []string
	}{
		{"Header", []string{"graph TD\n"}},
		{"Id Shape", []string{`id(("id"))`}},
		{"Plain Shape", []string{`last["last <br/> string"]`}},
		{"Derived Shape", []string{`full[["full <br/> string"]]`}},
		{"Nested Shape", []string{`home[/"home <br/> address"/]`}},
		{"Sanitized Id", []string{`first_name["first-name <br/> string"]`}},
		{"Abstract Kind", []string{`untyped["untyped <br/> abstract"]`}},
		{"Edges", []string{"first_name --> full", "last --> full"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
	assert.NotContains(t, out, "classDef", "no overlay without state")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	b := dsl.New("person")
	b.Add("first").AsString()
	b.Add("full").AsString().Formula("first + '!'")
	def := b.MustBuild()

	m, err := model.New(def, nil)
	require.NoError(t, err)
	require.NoError(t, m.Set("first", "x"))

	overlay := graph.OverlayFor(m)
	overlay.Focus = "full"
	out := graph.GenerateMermaid(def, overlay)

	assert.Contains(t, out, "class first changed;")
	assert.Contains(t, out, "class full changed;")
	assert.Contains(t, out, "class full focus;")
	assert.Equal(t, 1, strings.Count(out, "class first changed;"))
}
