package model

import (
	"fmt"

	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/codec"
	"github.com/aretw0/facet/pkg/domain"
)

// AttributeSpec declares one attribute of a definition.
type AttributeSpec struct {
	Name string
	Kind attribute.Kind
}

// Definition is the compiled, immutable description of a model type.
type Definition struct {
	Name       string
	Persistent bool
	Attributes []AttributeSpec

	index map[string]int
	order []string
}

// NewDefinition validates specs and computes the derivation order.
func NewDefinition(name string, specs ...AttributeSpec) (*Definition, error) {
	return newDefinition(name, false, specs)
}

// NewPersistentDefinition is NewDefinition for models stored through a
// ports.Storage. An "id" string attribute is added unless specs declare one.
func NewPersistentDefinition(name string, specs ...AttributeSpec) (*Definition, error) {
	return newDefinition(name, true, specs)
}

func newDefinition(name string, persistent bool, specs []AttributeSpec) (*Definition, error) {
	if name == "" {
		return nil, fmt.Errorf("model name is required")
	}

	all := make([]AttributeSpec, 0, len(specs)+1)
	if persistent && !declares(specs, domain.IDAttribute) {
		all = append(all, AttributeSpec{
			Name: domain.IDAttribute,
			Kind: attribute.Kind{Name: domain.IDAttribute, Codec: codec.String()},
		})
	}
	all = append(all, specs...)

	d := &Definition{
		Name:       name,
		Persistent: persistent,
		Attributes: all,
		index:      make(map[string]int, len(all)),
	}

	for i, spec := range all {
		if spec.Name == "" {
			return nil, fmt.Errorf("model %q: attribute #%d has no name", name, i)
		}
		if _, dup := d.index[spec.Name]; dup {
			return nil, fmt.Errorf("model %q: duplicate attribute %q", name, spec.Name)
		}
		if n := spec.Kind.Nested; n != nil && (n.Accepts == nil || n.New == nil) {
			return nil, fmt.Errorf("model %q: nested attribute %q needs Accepts and New", name, spec.Name)
		}
		d.index[spec.Name] = i
	}

	for _, spec := range all {
		for _, dep := range spec.Kind.DependsOn {
			if _, ok := d.index[dep]; !ok {
				return nil, fmt.Errorf("model %q: attribute %q depends on %q: %w", name, spec.Name, dep, domain.ErrUnknownAttribute)
			}
		}
	}

	order, err := d.derivationOrder()
	if err != nil {
		return nil, err
	}
	d.order = order
	return d, nil
}

// Attribute returns the AttributeSpec of the named attribute.
func (d *Definition) Attribute(name string) (AttributeSpec, bool) {
	i, ok := d.index[name]
	if !ok {
		return AttributeSpec{}, false
	}
	return d.Attributes[i], true
}

// Names returns attribute names in declaration order.
func (d *Definition) Names() []string {
	names := make([]string, len(d.Attributes))
	for i, spec := range d.Attributes {
		names[i] = spec.Name
	}
	return names
}

// DerivationOrder returns the derived attributes in the order a pass evaluates them.
func (d *Definition) DerivationOrder() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Dependencies returns the declared dependency edges of every attribute.
func (d *Definition) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(d.Attributes))
	for _, spec := range d.Attributes {
		deps[spec.Name] = append([]string(nil), spec.Kind.DependsOn...)
	}
	return deps
}

// derivationOrder is a depth-first topological sort. Roots are visited in
// declaration order, so independent attributes keep their declared order.
func (d *Definition) derivationOrder() ([]string, error) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make([]string, 0)
	var order []string

	var dfs func(name string) error
	dfs = func(name string) error {
		visited[name] = true
		recStack[name] = true
		path = append(path, name)

		spec := d.Attributes[d.index[name]]
		for _, dep := range spec.Kind.DependsOn {
			if !visited[dep] {
				if err := dfs(dep); err != nil {
					return err
				}
			} else if recStack[dep] {
				cycleStart := 0
				for i, n := range path {
					if n == dep {
						cycleStart = i
						break
					}
				}
				cyclePath := append(append([]string(nil), path[cycleStart:]...), dep)
				return NewCycleError(d.Name, cyclePath)
			}
		}

		path = path[:len(path)-1]
		recStack[name] = false
		if spec.Kind.IsDerived() {
			order = append(order, name)
		}
		return nil
	}

	for _, spec := range d.Attributes {
		if !visited[spec.Name] {
			if err := dfs(spec.Name); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

func declares(specs []AttributeSpec, name string) bool {
	for _, spec := range specs {
		if spec.Name == name {
			return true
		}
	}
	return false
}
