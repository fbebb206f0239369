package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventChange    EventType = "change"
	EventCommit    EventType = "commit"
	EventCalculate EventType = "calculate"
	EventDestruct  EventType = "destruct"
)

// ChangeEventName is the bus event fired after an attribute changes.
func ChangeEventName(attribute string) string {
	return string(EventChange) + ":" + attribute
}

// CommitEventName builds "[branch:]commit[:attribute]". The prefix is empty for
// the default branch; an empty attribute yields the model-level event.
func CommitEventName(branch, attribute string) string {
	name := string(EventCommit)
	if branch = BranchOrDefault(branch); branch != DefaultBranch {
		name = branch + ":" + name
	}
	if attribute != "" {
		name += ":" + attribute
	}
	return name
}

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Model     string    `json:"model"`
}

// ChangeEvent is emitted after an attribute's state is fully updated.
type ChangeEvent struct {
	EventBase
	Attribute  string `json:"attribute"`
	Value      any    `json:"value,omitempty"`
	FromNested bool   `json:"from_nested,omitempty"`
}

// CommitEvent is emitted when an attribute snapshot is written to a branch.
type CommitEvent struct {
	EventBase
	Attribute string `json:"attribute"`
	Branch    string `json:"branch"`
}

// CalculateEvent is emitted once a recalculation pass settles.
type CalculateEvent struct {
	EventBase
	Iterations int           `json:"iterations"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// LifecycleHooks defines callbacks for model observability.
type LifecycleHooks struct {
	OnChange    func(*ChangeEvent)
	OnCommit    func(*CommitEvent)
	OnCalculate func(*CalculateEvent)
}

// Combine fans each callback out to every non-nil hook set, in order.
func Combine(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		h := h
		if h.OnChange != nil {
			prev := out.OnChange
			out.OnChange = func(e *ChangeEvent) {
				if prev != nil {
					prev(e)
				}
				h.OnChange(e)
			}
		}
		if h.OnCommit != nil {
			prev := out.OnCommit
			out.OnCommit = func(e *CommitEvent) {
				if prev != nil {
					prev(e)
				}
				h.OnCommit(e)
			}
		}
		if h.OnCalculate != nil {
			prev := out.OnCalculate
			out.OnCalculate = func(e *CalculateEvent) {
				if prev != nil {
					prev(e)
				}
				h.OnCalculate(e)
			}
		}
	}
	return out
}
