package ports

import (
	"context"

	"github.com/aretw0/facet/pkg/domain"
)

// Storage defines the interface for persisting model documents.
// Documents hold the external values of a model, keyed by attribute name,
// without the id which is managed by the storage itself.
type Storage interface {
	// Find retrieves the document stored under id.
	// Returns domain.ErrNotFound if the record does not exist.
	Find(ctx context.Context, id string) (domain.Document, error)

	// Insert stores a new document and returns its generated id.
	Insert(ctx context.Context, doc domain.Document) (string, error)

	// Update replaces the document stored under id.
	// Returns domain.ErrNotFound if the record does not exist.
	Update(ctx context.Context, id string, doc domain.Document) error

	// Remove deletes the document stored under id. Removing a missing record is not an error.
	Remove(ctx context.Context, id string) error

	// List returns the ids of every stored record.
	List(ctx context.Context) ([]string, error)
}
