package formula

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/codec"
)

// Engine selects the expression language.
type Engine string

const (
	EngineExpr Engine = "expr"
	EngineCEL  Engine = "cel"
)

// Reserved variable names.
const (
	SelfVar  = "self"
	IsSetVar = "isSet"
)

// Option configures Compile.
type Option func(*config)

type config struct {
	engine    Engine
	variables []string
}

// WithEngine selects the engine. Defaults to EngineExpr.
func WithEngine(engine Engine) Option {
	return func(c *config) {
		c.engine = engine
	}
}

// WithVariables declares the attributes the formula reads. For EngineExpr it
// replaces dependency inference.
func WithVariables(names ...string) Option {
	return func(c *config) {
		c.variables = append(c.variables, names...)
	}
}

// ParseEngine resolves an engine by name. Empty means EngineExpr.
func ParseEngine(name string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(name))) {
	case "", EngineExpr:
		return EngineExpr, nil
	case EngineCEL:
		return EngineCEL, nil
	default:
		return "", fmt.Errorf("formula: unknown engine %q", name)
	}
}

type program interface {
	run(env map[string]any) (any, error)
}

// Formula is a compiled expression. It is safe for concurrent use.
type Formula struct {
	engine Engine
	source string
	deps   []string
	prog   program
}

// Compile parses and type-checks source.
func Compile(source string, opts ...Option) (*Formula, error) {
	cfg := config{engine: EngineExpr}
	for _, opt := range opts {
		opt(&cfg)
	}
	if strings.TrimSpace(source) == "" {
		return nil, wrap(cfg.engine, source, fmt.Errorf("empty expression"))
	}

	f := &Formula{engine: cfg.engine, source: source}
	var err error
	switch cfg.engine {
	case EngineExpr:
		f.deps = cfg.variables
		if f.deps == nil {
			f.deps, err = inferExprDependencies(source)
			if err != nil {
				return nil, wrap(cfg.engine, source, err)
			}
		}
		f.prog, err = compileExpr(source)
	case EngineCEL:
		f.deps = cfg.variables
		f.prog, err = compileCEL(source, f.deps)
	default:
		err = fmt.Errorf("unknown engine %q", cfg.engine)
	}
	if err != nil {
		return nil, wrap(cfg.engine, source, err)
	}
	f.deps = normalize(f.deps)
	return f, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string, opts ...Option) *Formula {
	f, err := Compile(source, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Formula) Engine() Engine { return f.engine }

func (f *Formula) Source() string { return f.source }

// DependsOn returns the attributes the formula reads, sorted.
func (f *Formula) DependsOn() []string { return slices.Clone(f.deps) }

// Evaluate runs the formula against env.
func (f *Formula) Evaluate(env map[string]any) (any, error) {
	out, err := f.prog.run(env)
	if err != nil {
		return nil, wrap(f.engine, f.source, err)
	}
	return out, nil
}

// Derive implements attribute.DeriveFunc.
func (f *Formula) Derive(scope attribute.Scope) (any, error) {
	env := make(map[string]any, len(f.deps)+2)
	for _, name := range f.deps {
		v, err := scope.Get(name)
		if err != nil {
			return nil, wrap(f.engine, f.source, err)
		}
		env[name] = v
	}
	self := scope.Self()
	env[SelfVar] = self.Value
	env[IsSetVar] = self.IsSet
	return f.Evaluate(env)
}

// Kind returns a derived attribute kind backed by the formula.
func (f *Formula) Kind(name string, c codec.Codec) attribute.Kind {
	return attribute.Kind{
		Name:      name,
		Codec:     c,
		Derive:    f.Derive,
		DependsOn: f.DependsOn(),
	}
}

func normalize(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || n == SelfVar || n == IsSetVar {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
