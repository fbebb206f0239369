package attribute

import (
	"github.com/aretw0/facet/pkg/codec"
	"github.com/aretw0/facet/pkg/domain"
)

// DeriveFunc computes the value of a derived attribute from the current state
// of its model.
type DeriveFunc func(scope Scope) (any, error)

// Scope is the read-only view of a model handed to derivations.
type Scope interface {
	// Get returns the external value of another attribute.
	Get(name string) (any, error)
	// Self returns the external value and isSet flag of the attribute being derived.
	Self() domain.Snapshot
}

// Kind describes a family of attributes. Kinds are composed from a codec and
// optional hooks instead of being specialized by inheritance.
type Kind struct {
	// Name identifies the kind (e.g., "string", "fullName").
	Name string
	// Codec canonicalizes values. A nil codec behaves as codec.Abstract.
	Codec codec.Codec
	// Default is a value or a func() any producer, used when unset.
	Default any
	// Validate reports what is wrong with a value. Empty means valid.
	Validate func(value any) string
	// Derive makes the attribute calculated.
	Derive DeriveFunc
	// DependsOn lists the attributes Derive reads.
	DependsOn []string
	// Nested makes the attribute hold a sub-model.
	Nested *NestedSpec
}

// DefaultValue returns the default, invoking it when it is a producer.
func (k Kind) DefaultValue() any {
	switch d := k.Default.(type) {
	case func() any:
		return d()
	default:
		return k.Default
	}
}

// IsDerived reports whether the kind has a derivation.
func (k Kind) IsDerived() bool {
	return k.Derive != nil
}

func (k Kind) codec() codec.Codec {
	if k.Codec == nil {
		return codec.Abstract()
	}
	return k.Codec
}

// Owner is the set of callbacks an attribute uses to reach its model.
// Nil callbacks are skipped.
type Owner struct {
	NotifyChanged        func(name string, fromNested bool)
	NotifyCommitted      func(name, branch string)
	RequestRecalculation func()
}

func (o Owner) changed(name string, fromNested bool) {
	if o.NotifyChanged != nil {
		o.NotifyChanged(name, fromNested)
	}
	if o.RequestRecalculation != nil {
		o.RequestRecalculation()
	}
}

func (o Owner) committed(name, branch string) {
	if o.NotifyCommitted != nil {
		o.NotifyCommitted(name, branch)
	}
}
