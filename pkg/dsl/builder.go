package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/facet/pkg/model"
)

// Builder manages the definition construction.
type Builder struct {
	name       string
	persistent bool
	order      []string
	attrs      map[string]*AttributeBuilder
}

// New creates a new definition builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		attrs: make(map[string]*AttributeBuilder),
	}
}

// Persistent adds the "id" attribute and enables storage operations.
func (b *Builder) Persistent() *Builder {
	b.persistent = true
	return b
}

// Add declares an attribute. Attributes keep their declaration order.
// If the attribute already exists, it returns the existing builder.
func (b *Builder) Add(name string) *AttributeBuilder {
	if ab, ok := b.attrs[name]; ok {
		return ab
	}
	ab := &AttributeBuilder{name: name}
	ab.kind.Name = "abstract"
	b.attrs[name] = ab
	b.order = append(b.order, name)
	return ab
}

// Build compiles the attributes into a definition.
func (b *Builder) Build() (*model.Definition, error) {
	specs := make([]model.AttributeSpec, 0, len(b.order))
	var errs []error
	for _, name := range b.order {
		ab := b.attrs[name]
		if ab.err != nil {
			errs = append(errs, fmt.Errorf("attribute %q: %w", name, ab.err))
			continue
		}
		specs = append(specs, ab.Spec())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to build definition %q: %w", b.name, errors.Join(errs...))
	}

	if b.persistent {
		return model.NewPersistentDefinition(b.name, specs...)
	}
	return model.NewDefinition(b.name, specs...)
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *model.Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
