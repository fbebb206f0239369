package domain

import (
	"reflect"
)

// DocumentDiff represents the changes between two documents of the same record.
// It is designed to be serialized to JSON for partial updates on the client.
type DocumentDiff struct {
	// ID identifies the record. Always present.
	ID string `json:"id"`

	// Changes contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Changes map[string]any `json:"changes,omitempty"`
}

// Diff calculates the difference between oldDoc and newDoc.
// If oldDoc is nil, every key of newDoc is reported (initial load).
// Returns nil when nothing changed.
func Diff(id string, oldDoc, newDoc Document) *DocumentDiff {
	changes := diffDocument(oldDoc, newDoc)
	if len(changes) == 0 {
		return nil
	}
	return &DocumentDiff{ID: id, Changes: changes}
}

func diffDocument(oldDoc, newDoc Document) map[string]any {
	delta := make(map[string]any)

	if oldDoc == nil {
		for k, v := range newDoc {
			delta[k] = v
		}
		return delta
	}

	for k, newVal := range newDoc {
		oldVal, exists := oldDoc[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range oldDoc {
		if _, exists := newDoc[k]; !exists {
			delta[k] = nil
		}
	}

	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DocumentDiff) IsEmpty() bool {
	return d == nil || len(d.Changes) == 0
}
