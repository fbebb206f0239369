package model

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/codec"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func complexDefinition(t *testing.T, inner *Definition) *Definition {
	t.Helper()
	innerA := AttributeSpec{Name: "innerA", Kind: attribute.Kind{
		Codec:     codec.String(),
		DependsOn: []string{"nested"},
		Derive: func(s attribute.Scope) (any, error) {
			v, err := s.Get("nested")
			if err != nil {
				return nil, err
			}
			return v.(*Model).Get("a")
		},
	}}
	return mustDefinition(t, "complex", AttributeSpec{Name: "nested", Kind: NestedKind(inner)}, innerA)
}

func TestNested_ChangesPropagateToParent(t *testing.T) {
	inner := mustDefinition(t, "inner", stringAttr("a", "a"))
	parent := mustModel(t, complexDefinition(t, inner), nil)

	sub := mustGet(t, parent, "nested").(*Model)
	assert.Equal(t, "a", mustGet(t, parent, "innerA"))

	var fromNested []bool
	parent.On(domain.ChangeEventName("nested"), func(p any) {
		fromNested = append(fromNested, p.(*domain.ChangeEvent).FromNested)
	})

	require.NoError(t, sub.Set("a", "changed"))
	assert.Equal(t, "changed", mustGet(t, parent, "innerA"), "parent recalculates after the sub-model settles")
	assert.Equal(t, []bool{true}, fromNested)
}

func TestNested_ReplaceUnsubscribesOldInstance(t *testing.T) {
	inner := mustDefinition(t, "inner", stringAttr("a", "a"))
	parent := mustModel(t, complexDefinition(t, inner), nil)

	oldSub := mustGet(t, parent, "nested").(*Model)
	newSub := mustModel(t, inner, map[string]any{"a": "fresh"})

	require.NoError(t, parent.Set("nested", newSub))
	assert.Same(t, newSub, mustGet(t, parent, "nested"))
	assert.Equal(t, "fresh", mustGet(t, parent, "innerA"))
	assert.Equal(t, 0, oldSub.bus.Len(string(domain.EventCalculate)))
	assert.Equal(t, 1, newSub.bus.Len(string(domain.EventCalculate)))

	changes := 0
	parent.On(domain.ChangeEventName("nested"), func(any) { changes++ })

	require.NoError(t, oldSub.Set("a", "ignored"))
	assert.Equal(t, 0, changes, "old instance no longer reaches the parent")
	assert.Equal(t, "fresh", mustGet(t, parent, "innerA"))

	require.NoError(t, newSub.Set("a", "seen"))
	assert.Equal(t, 1, changes)
	assert.Equal(t, "seen", mustGet(t, parent, "innerA"))
	assert.Equal(t, 1, newSub.bus.Len(string(domain.EventCalculate)), "nested changes never resubscribe")
}

func TestNested_SetMapForwardsIntoSubmodel(t *testing.T) {
	inner := mustDefinition(t, "inner", stringAttr("a", "a"), stringAttr("b", "b"))
	parent := mustModel(t, complexDefinition(t, inner), map[string]any{"nested": map[string]any{"b": "init"}})

	sub := mustGet(t, parent, "nested").(*Model)
	assert.Equal(t, "init", mustGet(t, sub, "b"))

	require.NoError(t, parent.Set("nested", map[string]any{"a": "in place"}))
	assert.Same(t, sub, mustGet(t, parent, "nested"))
	assert.Equal(t, "in place", mustGet(t, parent, "innerA"))
	assert.Equal(t, map[string]any{"a": "in place", "b": "init"}, parent.ToJSON()["nested"])
}

func TestNested_BranchOperationsDelegate(t *testing.T) {
	inner := mustDefinition(t, "inner", stringAttr("a", "a"))
	parent := mustModel(t, complexDefinition(t, inner), nil)
	sub := mustGet(t, parent, "nested").(*Model)

	require.NoError(t, sub.Set("a", "dirty"))
	assert.True(t, parent.IsChanged(""))
	assert.Contains(t, parent.Changes(""), "nested")

	assert.True(t, parent.Revert(""))
	assert.Equal(t, "a", mustGet(t, sub, "a"))
	assert.Equal(t, "a", mustGet(t, parent, "innerA"))
	assert.False(t, parent.IsChanged(""))

	require.NoError(t, sub.Set("a", "kept"))
	assert.True(t, parent.Commit(""))
	assert.False(t, sub.IsChanged(""))
}

func TestNested_UnsetUnsupported(t *testing.T) {
	inner := mustDefinition(t, "inner", stringAttr("a", "a"))
	parent := mustModel(t, complexDefinition(t, inner), nil)

	assert.ErrorIs(t, parent.Unset("nested"), domain.ErrUnsupported)
	assert.ErrorIs(t, parent.Set("nested", nil), domain.ErrUnsupported)
	_, err := parent.IsSet("nested")
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestNested_ValidationFailureIsWrapped(t *testing.T) {
	a := stringAttr("a", nil)
	a.Kind.Validate = func(v any) string {
		if v == nil {
			return "required"
		}
		return ""
	}
	inner := mustDefinition(t, "inner", a)
	parent := mustModel(t, complexDefinition(t, inner), nil)

	err := parent.Validate(context.Background())
	var verrs *domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs.Errors, 1)

	var verr *domain.ValidationError
	require.True(t, errors.As(verrs.Errors[0], &verr))
	assert.Equal(t, "nested", verr.Attribute)
	assert.Equal(t, domain.KindNested, verr.Kind)
	assert.Contains(t, verr.Message, "required")
}

func TestNested_DestroyReleasesSubscription(t *testing.T) {
	inner := mustDefinition(t, "inner", stringAttr("a", "a"))
	parent := mustModel(t, complexDefinition(t, inner), nil)
	sub := mustGet(t, parent, "nested").(*Model)

	parent.Destroy()
	assert.Equal(t, 0, sub.bus.Len(string(domain.EventCalculate)))
}

func TestNestedKind_RejectsOtherDefinitions(t *testing.T) {
	inner := mustDefinition(t, "inner", stringAttr("a", "a"))
	other := mustDefinition(t, "other", stringAttr("a", "a"))
	parent := mustModel(t, complexDefinition(t, inner), nil)

	err := parent.Set("nested", mustModel(t, other, nil))
	assert.Error(t, err)
}
