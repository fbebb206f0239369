package attribute

import (
	"context"
	"fmt"

	"github.com/aretw0/facet/pkg/domain"
)

// Attribute is a typed, observable, versioned value owned by a model.
// Empty branch names mean domain.DefaultBranch.
type Attribute interface {
	Name() string
	Kind() Kind

	// Get returns the external value.
	Get() any
	// Set replaces the value. Nil routes to Unset. Equal values are a no-op.
	Set(value any) error
	// Assign writes a derived value with Set semantics but keeps isSet unchanged.
	Assign(value any) error
	// Unset restores the default and marks the attribute as not set.
	Unset() error
	IsSet() (bool, error)
	// IsEqual compares canonical forms.
	IsEqual(value any) bool

	IsChanged(branch string) bool
	// Commit snapshots the current state into branch and reports whether it differed.
	Commit(branch string) bool
	// Revert restores branch and reports whether anything changed.
	Revert(branch string) bool
	LastCommitted(branch string) any
	Previous() any

	// Validate returns nil or a *domain.ValidationError.
	Validate(ctx context.Context) error
	ToJSON() any
	// Close releases resources held by the attribute.
	Close()
}

// New creates an attribute of the given kind. A nil initial value leaves the
// attribute unset and seeds it from the kind's default. The baseline is
// committed before New returns.
func New(name string, kind Kind, owner Owner, initial any) (Attribute, error) {
	if kind.Nested != nil {
		return newNested(name, kind, owner, initial)
	}
	return newScalar(name, kind, owner, initial)
}

type scalar struct {
	name     string
	kind     Kind
	owner    Owner
	value    any
	isSet    bool
	branches map[string]domain.Snapshot
}

func newScalar(name string, kind Kind, owner Owner, initial any) (*scalar, error) {
	a := &scalar{
		name:     name,
		kind:     kind,
		owner:    owner,
		branches: make(map[string]domain.Snapshot),
	}

	seed := initial
	if initial == nil {
		seed = kind.DefaultValue()
	} else {
		a.isSet = true
	}

	value, err := a.canonicalize(seed)
	if err != nil {
		return nil, err
	}
	a.value = value
	a.Commit(domain.DefaultBranch)
	return a, nil
}

func (a *scalar) Name() string { return a.name }

func (a *scalar) Kind() Kind { return a.kind }

func (a *scalar) Get() any { return a.external(a.value) }

func (a *scalar) Set(value any) error {
	if value == nil {
		return a.Unset()
	}
	canonical, err := a.canonicalize(value)
	if err != nil {
		return err
	}
	a.swap(canonical, true)
	return nil
}

func (a *scalar) Assign(value any) error {
	canonical, err := a.canonicalize(value)
	if err != nil {
		return err
	}
	a.swap(canonical, a.isSet)
	return nil
}

func (a *scalar) Unset() error {
	canonical, err := a.canonicalize(a.kind.DefaultValue())
	if err != nil {
		return err
	}
	if a.swap(canonical, false) || !a.isSet {
		return nil
	}
	a.isSet = false
	// Only the flag flipped: derivations reading isSet still need a pass.
	if a.owner.RequestRecalculation != nil {
		a.owner.RequestRecalculation()
	}
	return nil
}

func (a *scalar) IsSet() (bool, error) { return a.isSet, nil }

func (a *scalar) IsEqual(value any) bool {
	canonical, err := a.canonicalize(value)
	if err != nil {
		return false
	}
	return a.equal(a.value, canonical)
}

func (a *scalar) IsChanged(branch string) bool {
	snap, ok := a.branches[domain.BranchOrDefault(branch)]
	return !ok || !a.equal(a.value, snap.Value)
}

func (a *scalar) Commit(branch string) bool {
	branch = domain.BranchOrDefault(branch)
	if !a.IsChanged(branch) {
		// A flag-only change is recorded without a commit event.
		if snap := a.branches[branch]; snap.IsSet != a.isSet {
			a.branches[branch] = domain.Snapshot{Value: snap.Value, IsSet: a.isSet}
		}
		return false
	}
	a.branches[branch] = domain.Snapshot{Value: a.value, IsSet: a.isSet}
	a.owner.committed(a.name, branch)
	return true
}

func (a *scalar) Revert(branch string) bool {
	branch = domain.BranchOrDefault(branch)
	snap, ok := a.branches[branch]
	if !ok || a.equal(a.value, snap.Value) {
		return false
	}
	a.Commit(domain.PreviousBranch)
	a.value = snap.Value
	a.isSet = snap.IsSet
	a.owner.changed(a.name, false)
	return true
}

func (a *scalar) LastCommitted(branch string) any {
	snap, ok := a.branches[domain.BranchOrDefault(branch)]
	if !ok {
		return nil
	}
	return a.external(snap.Value)
}

func (a *scalar) Previous() any { return a.LastCommitted(domain.PreviousBranch) }

func (a *scalar) Validate(context.Context) error {
	if a.kind.Validate == nil {
		return nil
	}
	if msg := a.kind.Validate(a.Get()); msg != "" {
		return &domain.ValidationError{Attribute: a.name, Message: msg, Kind: domain.KindAttribute}
	}
	return nil
}

func (a *scalar) ToJSON() any { return a.Get() }

func (a *scalar) Close() {}

// swap snapshots the current state into PREVIOUS, replaces the value and
// notifies the owner. Observers only see the fully updated state.
func (a *scalar) swap(canonical any, isSet bool) bool {
	if a.equal(a.value, canonical) {
		return false
	}
	a.Commit(domain.PreviousBranch)
	a.value = canonical
	a.isSet = isSet
	a.owner.changed(a.name, false)
	return true
}

// canonicalize passes nil through untouched.
func (a *scalar) canonicalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	canonical, err := a.kind.codec().Canonicalize(value)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.name, err)
	}
	return canonical, nil
}

func (a *scalar) external(canonical any) any {
	if canonical == nil {
		return nil
	}
	return a.kind.codec().External(canonical)
}

func (a *scalar) equal(x, y any) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	return a.kind.codec().Equal(x, y)
}
