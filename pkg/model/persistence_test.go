package model_test

import (
	"context"
	"testing"

	"github.com/aretw0/facet/pkg/adapters/memory"
	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/codec"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// persistentDefinition mirrors a typical stored record: "a" with a default and
// "b" derived from it while unset.
func persistentDefinition(t *testing.T) *model.Definition {
	t.Helper()
	def, err := model.NewPersistentDefinition("persistent",
		model.AttributeSpec{Name: "a", Kind: attribute.Kind{Codec: codec.String(), Default: "a"}},
		model.AttributeSpec{Name: "b", Kind: attribute.Kind{
			Codec:     codec.String(),
			DependsOn: []string{"a"},
			Derive: func(s attribute.Scope) (any, error) {
				if self := s.Self(); self.IsSet {
					return self.Value, nil
				}
				a, err := s.Get("a")
				if err != nil {
					return nil, err
				}
				return "b" + a.(string)[1:], nil
			},
		}},
	)
	require.NoError(t, err)
	return def
}

func TestPersistence_NoStorage(t *testing.T) {
	m, err := model.New(persistentDefinition(t), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Save(context.Background()), domain.ErrNoStorage)
	assert.ErrorIs(t, m.Fetch(context.Background()), domain.ErrNoStorage)
	assert.ErrorIs(t, m.Remove(context.Background()), domain.ErrNoStorage)
}

func TestPersistence_IsNew(t *testing.T) {
	m, err := model.New(persistentDefinition(t), nil, model.WithStorage(memory.NewStore()))
	require.NoError(t, err)
	assert.True(t, m.IsNew())
	assert.Empty(t, m.ID())
}

func TestPersistence_InsertAndUpdateCalculatedAttributes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	def := persistentDefinition(t)

	m, err := model.New(def, nil, model.WithStorage(store))
	require.NoError(t, err)

	require.NoError(t, m.Set("a", "a-2"))
	require.NoError(t, m.Save(ctx))
	require.False(t, m.IsNew())
	assert.False(t, m.IsChanged(""), "saved state is the new baseline")

	doc, err := store.Find(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, "a-2", doc["a"])
	assert.Equal(t, "b-2", doc["b"])
	assert.NotContains(t, doc, domain.IDAttribute)

	require.NoError(t, m.Set("a", "a-3"))
	require.NoError(t, m.Save(ctx))

	doc, err = store.Find(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, "a-3", doc["a"])
	assert.Equal(t, "b-3", doc["b"])
}

func TestPersistence_SaveAndFetchByID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	def := persistentDefinition(t)

	m1, err := model.New(def, map[string]any{"a": "a-1"}, model.WithStorage(store))
	require.NoError(t, err)
	require.NoError(t, m1.Save(ctx))

	m2, err := model.New(def, map[string]any{domain.IDAttribute: m1.ID()}, model.WithStorage(store))
	require.NoError(t, err)
	require.NoError(t, m2.Fetch(ctx))
	assert.Equal(t, "a-1", m2.ToJSON()["a"])
	assert.False(t, m2.IsChanged(""))

	require.NoError(t, m2.Set("a", "a-2"))
	require.NoError(t, m2.Save(ctx))

	require.NoError(t, m1.Fetch(ctx))
	v, err := m1.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a-2", v)
}

func TestPersistence_FetchGoesThroughSet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	def := persistentDefinition(t)

	id, err := store.Insert(ctx, domain.Document{"a": "a-fetched", "b": "ab-fetched", "legacy": true})
	require.NoError(t, err)

	m, err := model.New(def, map[string]any{domain.IDAttribute: id}, model.WithStorage(store))
	require.NoError(t, err)

	changed := 0
	m.On("change", func(any) { changed++ })

	require.NoError(t, m.Fetch(ctx))
	assert.Equal(t, map[string]any{"id": id, "a": "a-fetched", "b": "ab-fetched"}, m.ToJSON())
	assert.Positive(t, changed)
	assert.False(t, m.IsChanged(""))

	isSet, err := m.IsSet("b")
	require.NoError(t, err)
	assert.True(t, isSet, "fetched values are explicit")
}

func TestPersistence_RemovePreventsFurtherSave(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	m, err := model.New(persistentDefinition(t), nil, model.WithStorage(store))
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx))
	id := m.ID()

	require.NoError(t, m.Remove(ctx))

	err = m.Save(ctx)
	assert.ErrorIs(t, err, domain.ErrDestructed)
	assert.Contains(t, err.Error(), "destructed")
	assert.ErrorIs(t, m.Fetch(ctx), domain.ErrDestructed)

	other, err := model.New(persistentDefinition(t), map[string]any{domain.IDAttribute: id}, model.WithStorage(store))
	require.NoError(t, err)
	assert.True(t, model.IsNotFound(other.Fetch(ctx)))
}

func TestPersistence_SaveRejectsInvalidModel(t *testing.T) {
	required := model.AttributeSpec{Name: "name", Kind: attribute.Kind{
		Codec: codec.String(),
		Validate: func(v any) string {
			if v == nil {
				return "required"
			}
			return ""
		},
	}}
	def, err := model.NewPersistentDefinition("strict", required)
	require.NoError(t, err)

	store := memory.NewStore()
	m, err := model.New(def, nil, model.WithStorage(store))
	require.NoError(t, err)

	var verrs *domain.ValidationErrors
	assert.ErrorAs(t, m.Save(context.Background()), &verrs)
	assert.True(t, m.IsNew())

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPersistence_NestedIDAfterSave(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	persistent := persistentDefinition(t)

	complexDef, err := model.NewDefinition("complex",
		model.AttributeSpec{Name: "nested", Kind: model.NestedKind(persistent, model.WithStorage(store))},
		model.AttributeSpec{Name: "nestedId", Kind: attribute.Kind{
			Codec:     codec.String(),
			DependsOn: []string{"nested"},
			Derive: func(s attribute.Scope) (any, error) {
				v, err := s.Get("nested")
				if err != nil {
					return nil, err
				}
				if id := v.(*model.Model).ID(); id != "" {
					return id, nil
				}
				return nil, nil
			},
		}},
	)
	require.NoError(t, err)

	complexModel, err := model.New(complexDef, nil)
	require.NoError(t, err)

	v, err := complexModel.Get("nested")
	require.NoError(t, err)
	nested := v.(*model.Model)

	nestedID, err := complexModel.Get("nestedId")
	require.NoError(t, err)
	assert.Nil(t, nestedID)

	require.NoError(t, nested.Save(ctx))
	require.NoError(t, complexModel.Ready(ctx))

	nestedID, err = complexModel.Get("nestedId")
	require.NoError(t, err)
	assert.Equal(t, nested.ID(), nestedID)
	assert.NotEmpty(t, nestedID)
}
