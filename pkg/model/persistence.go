package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/spf13/cast"
)

// ID returns the storage id of a persistent model, empty while new.
func (m *Model) ID() string {
	attr, ok := m.attrs[domain.IDAttribute]
	if !ok {
		return ""
	}
	return cast.ToString(attr.Get())
}

// IsNew reports whether the model was never saved.
func (m *Model) IsNew() bool { return m.ID() == "" }

// IsDestructed reports whether Remove or Destroy was called.
func (m *Model) IsDestructed() bool { return m.destructed }

// Fetch loads the stored document and applies it through Set, so dirty
// tracking and recalculation behave as for any other change. The fetched
// state becomes the committed baseline.
func (m *Model) Fetch(ctx context.Context) error {
	if err := m.checkPersistence(); err != nil {
		return err
	}
	id := m.ID()
	if id == "" {
		return fmt.Errorf("model %q: fetch requires an id: %w", m.def.Name, domain.ErrNotFound)
	}

	doc, err := m.storage.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("model %q: fetch %s: %w", m.def.Name, id, err)
	}

	values := make(map[string]any, len(doc))
	for name, value := range doc {
		if name == domain.IDAttribute {
			continue
		}
		if _, ok := m.def.index[name]; !ok {
			m.logger.Warn("ignoring stored field", "model", m.def.Name, "id", id, "field", name)
			continue
		}
		values[name] = value
	}
	if err := m.SetAll(values); err != nil {
		return fmt.Errorf("model %q: fetch %s: %w", m.def.Name, id, err)
	}
	if err := m.Ready(ctx); err != nil {
		return err
	}
	m.Commit(domain.DefaultBranch)
	m.logger.Debug("model fetched", "model", m.def.Name, "id", id)
	return nil
}

// Save validates the model and inserts or updates its document. A new model
// receives its id through Set; the saved state becomes the committed baseline.
func (m *Model) Save(ctx context.Context) error {
	if err := m.checkPersistence(); err != nil {
		return err
	}
	if err := m.Validate(ctx); err != nil {
		return err
	}

	doc := domain.Document(m.ToJSON())
	delete(doc, domain.IDAttribute)

	if m.IsNew() {
		id, err := m.storage.Insert(ctx, doc)
		if err != nil {
			return fmt.Errorf("model %q: insert: %w", m.def.Name, err)
		}
		if err := m.Set(domain.IDAttribute, id); err != nil {
			return err
		}
		m.logger.Debug("model inserted", "model", m.def.Name, "id", id)
	} else {
		if err := m.storage.Update(ctx, m.ID(), doc); err != nil {
			return fmt.Errorf("model %q: update %s: %w", m.def.Name, m.ID(), err)
		}
		m.logger.Debug("model updated", "model", m.def.Name, "id", m.ID())
	}

	m.Commit(domain.DefaultBranch)
	return m.Ready(ctx)
}

// Remove deletes the stored document and destroys the model. Later Fetch and
// Save calls fail with domain.ErrDestructed.
func (m *Model) Remove(ctx context.Context) error {
	if err := m.checkPersistence(); err != nil {
		return err
	}
	if !m.IsNew() {
		if err := m.storage.Remove(ctx, m.ID()); err != nil {
			return fmt.Errorf("model %q: remove %s: %w", m.def.Name, m.ID(), err)
		}
	}
	m.logger.Debug("model removed", "model", m.def.Name, "id", m.ID())
	m.Destroy()
	return nil
}

func (m *Model) checkPersistence() error {
	if m.destructed {
		return fmt.Errorf("model %q: %w", m.def.Name, domain.ErrDestructed)
	}
	if m.storage == nil {
		return fmt.Errorf("model %q: %w", m.def.Name, domain.ErrNoStorage)
	}
	if !m.def.Persistent {
		return fmt.Errorf("model %q is not persistent: %w", m.def.Name, domain.ErrNoStorage)
	}
	return nil
}

// IsNotFound reports whether err means the stored record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
