package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		old  Document
		new  Document
		want map[string]any // nil means no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  Document{"a": "x", "b": 1},
			want: map[string]any{"a": "x", "b": 1},
		},
		{
			name: "No Changes",
			old:  Document{"a": "x", "tags": []any{"t1"}},
			new:  Document{"a": "x", "tags": []any{"t1"}},
			want: nil,
		},
		{
			name: "Modified And Added",
			old:  Document{"a": "x"},
			new:  Document{"a": "y", "b": true},
			want: map[string]any{"a": "y", "b": true},
		},
		{
			name: "Deleted Key",
			old:  Document{"a": "x", "b": 2},
			new:  Document{"a": "x"},
			want: map[string]any{"b": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff("rec-1", tt.old, tt.new)
			if tt.want == nil {
				assert.Nil(t, got)
				assert.True(t, got.IsEmpty())
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, "rec-1", got.ID)
			assert.Equal(t, tt.want, got.Changes)
		})
	}
}

func TestDiff_JSONOmitsEmptyChanges(t *testing.T) {
	data, err := json.Marshal(&DocumentDiff{ID: "rec-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"rec-1"}`, string(data))
}

func TestCommitEventName(t *testing.T) {
	assert.Equal(t, "commit:a", CommitEventName("", "a"))
	assert.Equal(t, "commit:a", CommitEventName(DefaultBranch, "a"))
	assert.Equal(t, "PREVIOUS_BRANCH:commit:a", CommitEventName(PreviousBranch, "a"))
	assert.Equal(t, "draft:commit", CommitEventName("draft", ""))
	assert.Equal(t, "change:a", ChangeEventName("a"))
}

func TestDocumentClone_IsDeep(t *testing.T) {
	doc := Document{
		"nested": map[string]any{"k": "v"},
		"list":   []any{"a"},
	}
	clone := doc.Clone()
	clone["nested"].(map[string]any)["k"] = "changed"
	clone["list"].([]any)[0] = "changed"

	assert.Equal(t, "v", doc["nested"].(map[string]any)["k"])
	assert.Equal(t, "a", doc["list"].([]any)[0])
}

func TestValidationErrors_Messages(t *testing.T) {
	agg := &ValidationErrors{Errors: []error{
		&ValidationError{Attribute: "a", Message: "required", Kind: KindAttribute},
		&ValidationError{Attribute: "b", Message: "too short", Kind: KindRule},
	}}
	assert.Equal(t, map[string]string{"a": "required", "b": "too short"}, agg.Messages())
	assert.Contains(t, agg.Error(), "2 validation errors")

	var verr *ValidationError
	assert.ErrorAs(t, agg, &verr)
	assert.Equal(t, "a", verr.Attribute)
}

func TestCombineHooks(t *testing.T) {
	var calls []string
	combined := Combine(
		LifecycleHooks{OnChange: func(*ChangeEvent) { calls = append(calls, "first") }},
		LifecycleHooks{},
		LifecycleHooks{OnChange: func(*ChangeEvent) { calls = append(calls, "second") }},
	)
	combined.OnChange(&ChangeEvent{Attribute: "a"})
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Nil(t, combined.OnCommit)
}
