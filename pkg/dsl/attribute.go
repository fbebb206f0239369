package dsl

import (
	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/codec"
	"github.com/aretw0/facet/pkg/formula"
	"github.com/aretw0/facet/pkg/model"
)

// AttributeBuilder provides a fluent API for configuring an attribute.
type AttributeBuilder struct {
	name string
	kind attribute.Kind
	err  error
}

// Codec sets the value codec and names the kind after it.
func (a *AttributeBuilder) Codec(c codec.Codec) *AttributeBuilder {
	a.kind.Codec = c
	a.kind.Name = c.Name()
	return a
}

// AsString and its siblings select a built-in codec.
func (a *AttributeBuilder) AsString() *AttributeBuilder  { return a.Codec(codec.String()) }
func (a *AttributeBuilder) AsNumber() *AttributeBuilder  { return a.Codec(codec.Number()) }
func (a *AttributeBuilder) AsInteger() *AttributeBuilder { return a.Codec(codec.Integer()) }
func (a *AttributeBuilder) AsBoolean() *AttributeBuilder { return a.Codec(codec.Boolean()) }
func (a *AttributeBuilder) AsTime() *AttributeBuilder    { return a.Codec(codec.Time()) }
func (a *AttributeBuilder) AsList() *AttributeBuilder    { return a.Codec(codec.List()) }
func (a *AttributeBuilder) AsMap() *AttributeBuilder     { return a.Codec(codec.Map()) }

// Named overrides the kind name reported by Kind().Name.
func (a *AttributeBuilder) Named(kind string) *AttributeBuilder {
	a.kind.Name = kind
	return a
}

// Default sets the value, or func() any producer, used while unset.
func (a *AttributeBuilder) Default(value any) *AttributeBuilder {
	a.kind.Default = value
	return a
}

// Validate adds a validation hook. Multiple hooks run in order and the first
// failure wins.
func (a *AttributeBuilder) Validate(fn func(value any) string) *AttributeBuilder {
	prev := a.kind.Validate
	if prev == nil {
		a.kind.Validate = fn
		return a
	}
	a.kind.Validate = func(v any) string {
		if msg := prev(v); msg != "" {
			return msg
		}
		return fn(v)
	}
	return a
}

// Derive makes the attribute calculated from the listed attributes.
func (a *AttributeBuilder) Derive(fn attribute.DeriveFunc, dependsOn ...string) *AttributeBuilder {
	a.kind.Derive = fn
	a.kind.DependsOn = dependsOn
	return a
}

// Formula compiles an expression and uses it as the derivation.
// Compile errors surface from Builder.Build.
func (a *AttributeBuilder) Formula(source string, opts ...formula.Option) *AttributeBuilder {
	f, err := formula.Compile(source, opts...)
	if err != nil {
		a.err = err
		return a
	}
	return a.Derive(f.Derive, f.DependsOn()...)
}

// Nested makes the attribute hold a sub-model of def.
func (a *AttributeBuilder) Nested(def *model.Definition, opts ...model.Option) *AttributeBuilder {
	a.kind = model.NestedKind(def, opts...)
	return a
}

// Spec returns the underlying attribute spec.
// This is primarily used by the Builder, but exposed for advanced usage.
func (a *AttributeBuilder) Spec() model.AttributeSpec {
	return model.AttributeSpec{Name: a.name, Kind: a.kind}
}
