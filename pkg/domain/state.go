package domain

// Well-known branch names. Any other non-empty string is a user branch.
const (
	// DefaultBranch holds the last committed baseline.
	DefaultBranch = "DEFAULT_BRANCH"

	// PreviousBranch holds the state immediately before the latest change.
	PreviousBranch = "PREVIOUS_BRANCH"

	// ListenBranch records which sub-model a nested attribute is subscribed to.
	ListenBranch = "LISTEN_BRANCH"
)

// IDAttribute is the implicit attribute carried by persistent models.
const IDAttribute = "id"

// Snapshot is the state recorded for one branch of an attribute.
type Snapshot struct {
	Value any  `json:"value"`
	IsSet bool `json:"is_set"`
}

// BranchOrDefault maps the empty branch name to DefaultBranch.
func BranchOrDefault(branch string) string {
	if branch == "" {
		return DefaultBranch
	}
	return branch
}

// Document is the externally represented form of a model, keyed by attribute name.
type Document map[string]any

// Clone returns a deep copy of the document. Nested maps and slices are copied,
// other values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, inner := range typed {
			out[k] = cloneValue(inner)
		}
		return out
	case Document:
		return typed.Clone()
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
