package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/google/uuid"
)

// Store implements ports.Storage in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Document
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Document),
	}
}

// Find retrieves a copy of the stored document so callers can't mutate store state.
func (s *Store) Find(ctx context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.Clone(), nil
}

// Insert stores a deep copy of doc under a new UUID.
func (s *Store) Insert(ctx context.Context, doc domain.Document) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = cloneOrEmpty(doc)
	return id, nil
}

// Update replaces the stored document.
func (s *Store) Update(ctx context.Context, id string, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("update %s: %w", id, domain.ErrNotFound)
	}
	s.data[id] = cloneOrEmpty(doc)
	return nil
}

// Remove deletes the document.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func cloneOrEmpty(doc domain.Document) domain.Document {
	if doc == nil {
		return domain.Document{}
	}
	return doc.Clone()
}
