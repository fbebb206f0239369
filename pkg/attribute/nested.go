package attribute

import (
	"context"
	"fmt"

	"github.com/aretw0/facet/pkg/bus"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/spf13/cast"
)

// Submodel is what a nested attribute needs from the model it holds.
type Submodel interface {
	On(event string, handler bus.Handler) *bus.Subscription
	SetAll(values map[string]any) error
	Commit(branch string) bool
	Revert(branch string) bool
	IsChanged(branch string) bool
	Validate(ctx context.Context) error
	Ready(ctx context.Context) error
	ToJSON() map[string]any
}

// NestedSpec describes the sub-model type of a nested attribute.
type NestedSpec struct {
	// Accepts reports whether value already is an instance of the sub-model type.
	Accepts func(value any) (Submodel, bool)
	// New builds a sub-model from initial state (may be nil).
	New func(init map[string]any) (Submodel, error)
}

// Nested is an attribute whose value is a sub-model. Branch operations are
// delegated to the sub-model; the attribute itself only tracks which instance
// is bound and listens to its "calculate" event.
type Nested struct {
	name     string
	kind     Kind
	owner    Owner
	value    Submodel
	previous Submodel

	// listen is the subscription recorded for domain.ListenBranch.
	listen       *bus.Subscription
	listenTarget Submodel
}

var _ Attribute = (*Nested)(nil)

func newNested(name string, kind Kind, owner Owner, initial any) (*Nested, error) {
	n := &Nested{name: name, kind: kind, owner: owner}

	seed := initial
	if seed == nil {
		seed = kind.DefaultValue()
	}
	sub, err := n.parse(seed)
	if err != nil {
		return nil, err
	}
	n.value = sub
	n.value.Commit(domain.DefaultBranch)
	n.bind()
	return n, nil
}

func (n *Nested) Name() string { return n.name }

func (n *Nested) Kind() Kind { return n.kind }

// Get returns the bound sub-model.
func (n *Nested) Get() any { return n.value }

// Submodel returns the bound sub-model.
func (n *Nested) Submodel() Submodel { return n.value }

// Set replaces the bound instance when value is a sub-model, otherwise it
// forwards value into the current sub-model's SetAll.
func (n *Nested) Set(value any) error {
	if value == nil {
		return n.Unset()
	}
	if n.IsEqual(value) {
		return nil
	}

	if sub, ok := n.kind.Nested.Accepts(value); ok {
		n.previous = n.value
		n.value = sub
	} else {
		values, err := cast.ToStringMapE(value)
		if err != nil {
			return fmt.Errorf("attribute %q: expected sub-model or map, got %T: %w", n.name, value, err)
		}
		if err := n.value.SetAll(values); err != nil {
			return fmt.Errorf("attribute %q: %w", n.name, err)
		}
	}
	n.emitChange(false)
	return nil
}

// Assign behaves like Set: a nested attribute has no isSet flag to keep.
func (n *Nested) Assign(value any) error { return n.Set(value) }

func (n *Nested) Unset() error {
	return fmt.Errorf("attribute %q: unset: %w", n.name, domain.ErrUnsupported)
}

func (n *Nested) IsSet() (bool, error) {
	return false, fmt.Errorf("attribute %q: is set: %w", n.name, domain.ErrUnsupported)
}

// IsEqual compares references: equal data in a different instance is not equal.
func (n *Nested) IsEqual(value any) bool {
	sub, ok := n.kind.Nested.Accepts(value)
	return ok && sub == n.value
}

func (n *Nested) IsChanged(branch string) bool { return n.value.IsChanged(branch) }

func (n *Nested) Commit(branch string) bool { return n.value.Commit(branch) }

func (n *Nested) Revert(branch string) bool { return n.value.Revert(branch) }

// LastCommitted only knows domain.ListenBranch, the bound instance.
func (n *Nested) LastCommitted(branch string) any {
	if branch != domain.ListenBranch || n.listenTarget == nil {
		return nil
	}
	return n.listenTarget
}

// Previous returns the instance bound before the last reference replacement.
func (n *Nested) Previous() any {
	if n.previous == nil {
		return nil
	}
	return n.previous
}

func (n *Nested) Validate(ctx context.Context) error { return n.value.Validate(ctx) }

// Ready waits for the sub-model's pending recalculation.
func (n *Nested) Ready(ctx context.Context) error { return n.value.Ready(ctx) }

func (n *Nested) ToJSON() any { return n.value.ToJSON() }

// Close releases the subscription to the bound sub-model.
func (n *Nested) Close() {
	n.listen.Close()
	n.listen = nil
	n.listenTarget = nil
}

func (n *Nested) parse(value any) (Submodel, error) {
	if sub, ok := n.kind.Nested.Accepts(value); ok {
		return sub, nil
	}
	var init map[string]any
	if value != nil {
		m, err := cast.ToStringMapE(value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: expected sub-model or map, got %T: %w", n.name, value, err)
		}
		init = m
	}
	sub, err := n.kind.Nested.New(init)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", n.name, err)
	}
	return sub, nil
}

// emitChange notifies the owner. Changes coming from the sub-model never
// rebind, which keeps a calculate event from resubscribing forever.
func (n *Nested) emitChange(fromNested bool) {
	if !fromNested {
		n.bind()
	}
	n.owner.changed(n.name, fromNested)
}

// bind moves the listen subscription to the current instance. It is a no-op
// while the recorded instance is still the bound one.
func (n *Nested) bind() {
	if n.listen != nil && n.listenTarget == n.value {
		return
	}
	n.listen.Close()
	n.listen = n.value.On(string(domain.EventCalculate), func(any) {
		n.emitChange(true)
	})
	n.listenTarget = n.value
}
