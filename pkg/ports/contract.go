package ports

import (
	"context"
	"testing"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStorageContract runs a suite of tests to verify that a Storage implementation
// adheres to the defined interface contract.
func RunStorageContract(t *testing.T, storage Storage) {
	ctx := context.Background()

	t.Run("Insert and Find", func(t *testing.T) {
		doc := domain.Document{
			"a":      "a-2",
			"count":  42,
			"nested": map[string]any{"x": "y"},
		}

		id, err := storage.Insert(ctx, doc)
		require.NoError(t, err, "Insert should not return error")
		require.NotEmpty(t, id, "Insert should generate an id")
		defer func() { _ = storage.Remove(ctx, id) }()

		loaded, err := storage.Find(ctx, id)
		require.NoError(t, err, "Find should not return error")
		assert.Equal(t, "a-2", loaded["a"])
		// JSON backed storages turn numbers into float64; only check existence.
		assert.NotNil(t, loaded["count"])
		assert.Equal(t, map[string]any{"x": "y"}, loaded["nested"])
	})

	t.Run("Stored Documents Are Isolated", func(t *testing.T) {
		doc := domain.Document{"a": "before"}
		id, err := storage.Insert(ctx, doc)
		require.NoError(t, err)
		defer func() { _ = storage.Remove(ctx, id) }()

		doc["a"] = "mutated after insert"
		loaded, err := storage.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "before", loaded["a"])

		loaded["a"] = "mutated after find"
		again, err := storage.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "before", again["a"])
	})

	t.Run("Update", func(t *testing.T) {
		id, err := storage.Insert(ctx, domain.Document{"a": "a-1"})
		require.NoError(t, err)
		defer func() { _ = storage.Remove(ctx, id) }()

		require.NoError(t, storage.Update(ctx, id, domain.Document{"a": "a-2"}))

		loaded, err := storage.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "a-2", loaded["a"])
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		err := storage.Update(ctx, "non-existent-record", domain.Document{"a": "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Find Non-Existent", func(t *testing.T) {
		_, err := storage.Find(ctx, "non-existent-record")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Remove", func(t *testing.T) {
		id, err := storage.Insert(ctx, domain.Document{"a": "gone"})
		require.NoError(t, err)

		require.NoError(t, storage.Remove(ctx, id), "Remove should not return error")

		_, err = storage.Find(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "Find after Remove should return ErrNotFound")

		assert.NoError(t, storage.Remove(ctx, id), "Removing twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, err := storage.Insert(ctx, domain.Document{"n": 1})
		require.NoError(t, err)
		id2, err := storage.Insert(ctx, domain.Document{"n": 2})
		require.NoError(t, err)

		defer func() {
			_ = storage.Remove(ctx, id1)
			_ = storage.Remove(ctx, id2)
		}()

		ids, err := storage.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
