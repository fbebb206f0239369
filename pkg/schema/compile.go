package schema

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/formula"
	"github.com/aretw0/facet/pkg/model"
	"github.com/aretw0/facet/pkg/registry"
)

// Option configures Compile.
type Option func(*compiler)

// WithRegistry resolves derive, validator and custom kind names.
func WithRegistry(r *registry.Registry) Option {
	return func(c *compiler) {
		c.registry = r
	}
}

// WithModelOptions is applied to the sub-models created by nested attributes.
func WithModelOptions(opts ...model.Option) Option {
	return func(c *compiler) {
		c.modelOpts = append(c.modelOpts, opts...)
	}
}

// Definitions is the compiled form of a document.
type Definitions struct {
	defs  map[string]*model.Definition
	names []string
}

// Get returns the definition of a model.
func (d *Definitions) Get(name string) (*model.Definition, bool) {
	def, ok := d.defs[name]
	return def, ok
}

// Names returns the model names, sorted.
func (d *Definitions) Names() []string {
	return slices.Clone(d.names)
}

type compiler struct {
	doc       *Document
	registry  *registry.Registry
	modelOpts []model.Option
	defs      map[string]*model.Definition
	errs      []error
}

// Compile turns a document into definitions. Nested references are compiled
// before the models that hold them; reference cycles are rejected.
func Compile(doc *Document, opts ...Option) (*Definitions, error) {
	if doc == nil || len(doc.Models) == 0 {
		return nil, fmt.Errorf("schema: no models defined")
	}
	c := &compiler{doc: doc, defs: make(map[string]*model.Definition)}
	for _, opt := range opts {
		opt(c)
	}

	names := make([]string, 0, len(doc.Models))
	for name := range doc.Models {
		names = append(names, name)
	}
	slices.Sort(names)

	order, err := c.referenceOrder(names)
	if err != nil {
		return nil, err
	}
	for _, name := range order {
		c.compileModel(name, doc.Models[name])
	}
	if len(c.errs) > 0 {
		return nil, &AggregateError{Errors: c.errs}
	}
	return &Definitions{defs: c.defs, names: names}, nil
}

// referenceOrder sorts models so that nested references come first.
func (c *compiler) referenceOrder(names []string) ([]string, error) {
	var (
		order    []string
		done     = make(map[string]bool)
		visiting = make(map[string]bool)
		path     []string
		errs     []error
	)

	var visit func(name string) error
	visit = func(name string) error {
		if done[name] {
			return nil
		}
		if visiting[name] {
			start := slices.Index(path, name)
			cycle := append(slices.Clone(path[start:]), name)
			return model.NewCycleError(name, cycle)
		}
		visiting[name] = true
		path = append(path, name)

		for _, attr := range c.doc.Models[name].Attributes {
			if attr.Kind != KindModel {
				continue
			}
			if _, ok := c.doc.Models[attr.Model]; !ok {
				errs = append(errs, &ValidationError{
					Key:    name + "." + attr.Name,
					Reason: "unknown model reference",
					Value:  attr.Model,
				})
				continue
			}
			if err := visit(attr.Model); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		visiting[name] = false
		done[name] = true
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, fmt.Errorf("schema: nested models: %w", err)
		}
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return order, nil
}

func (c *compiler) compileModel(name string, spec ModelSpec) {
	specs := make([]model.AttributeSpec, 0, len(spec.Attributes))
	failed := false
	for _, attr := range spec.Attributes {
		kind, err := c.compileAttribute(attr)
		if err != nil {
			c.errs = append(c.errs, &ValidationError{Key: name + "." + attr.Name, Reason: err.Error()})
			failed = true
			continue
		}
		specs = append(specs, model.AttributeSpec{Name: attr.Name, Kind: kind})
	}
	if failed {
		return
	}

	build := model.NewDefinition
	if spec.Persistent {
		build = model.NewPersistentDefinition
	}
	def, err := build(name, specs...)
	if err != nil {
		c.errs = append(c.errs, err)
		return
	}
	c.defs[name] = def
}

func (c *compiler) compileAttribute(spec AttributeSpec) (attribute.Kind, error) {
	if spec.Name == "" {
		return attribute.Kind{}, errors.New("name is required")
	}

	if spec.Kind == KindModel {
		if spec.Formula != "" || spec.Derive != "" || spec.Default != nil {
			return attribute.Kind{}, errors.New("model attributes take no default, formula or derive")
		}
		def, ok := c.defs[spec.Model]
		if !ok {
			return attribute.Kind{}, fmt.Errorf("model %q failed to compile", spec.Model)
		}
		return model.NestedKind(def, c.modelOpts...), nil
	}

	if spec.Kind == "" {
		return attribute.Kind{}, errors.New("kind is required")
	}
	cd, err := c.registry.Codec(spec.Kind)
	if err != nil {
		return attribute.Kind{}, err
	}
	kind := attribute.Kind{Name: spec.Kind, Codec: cd, Default: spec.Default}

	switch {
	case spec.Formula != "" && spec.Derive != "":
		return attribute.Kind{}, errors.New("formula and derive are mutually exclusive")
	case spec.Formula != "":
		engine, err := formula.ParseEngine(spec.Engine)
		if err != nil {
			return attribute.Kind{}, err
		}
		opts := []formula.Option{formula.WithEngine(engine)}
		if len(spec.DependsOn) > 0 {
			opts = append(opts, formula.WithVariables(spec.DependsOn...))
		}
		f, err := formula.Compile(spec.Formula, opts...)
		if err != nil {
			return attribute.Kind{}, err
		}
		kind.Derive = f.Derive
		kind.DependsOn = f.DependsOn()
	case spec.Derive != "":
		hook, err := c.lookupDerive(spec.Derive)
		if err != nil {
			return attribute.Kind{}, err
		}
		kind.Derive = hook.Fn
		kind.DependsOn = mergeNames(hook.DependsOn, spec.DependsOn)
	}

	var checks []func(any) string
	if spec.Validate != "" {
		fn, err := tagValidator(spec.Validate)
		if err != nil {
			return attribute.Kind{}, err
		}
		checks = append(checks, fn)
	}
	if spec.Validator != "" {
		if c.registry == nil {
			return attribute.Kind{}, fmt.Errorf("validator %q: no registry configured", spec.Validator)
		}
		fn, err := c.registry.Validator(spec.Validator)
		if err != nil {
			return attribute.Kind{}, err
		}
		checks = append(checks, fn)
	}
	kind.Validate = firstFailure(checks)
	return kind, nil
}

func (c *compiler) lookupDerive(name string) (registry.DeriveHook, error) {
	if c.registry == nil {
		return registry.DeriveHook{}, fmt.Errorf("derive %q: no registry configured", name)
	}
	return c.registry.Derive(name)
}

func firstFailure(checks []func(any) string) func(any) string {
	if len(checks) == 0 {
		return nil
	}
	return func(v any) string {
		for _, check := range checks {
			if msg := check(v); msg != "" {
				return msg
			}
		}
		return ""
	}
}

func mergeNames(a, b []string) []string {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}
