package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/codec"
)

// DeriveHook is a named derivation together with the attributes it reads.
type DeriveHook struct {
	Fn        attribute.DeriveFunc
	DependsOn []string
}

// ValidateFunc reports what is wrong with a value. Empty means valid.
type ValidateFunc func(value any) string

// Registry maps names used in schema files to Go hooks.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	derives    map[string]DeriveHook
	validators map[string]ValidateFunc
	codecs     map[string]codec.Codec
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		derives:    make(map[string]DeriveHook),
		validators: make(map[string]ValidateFunc),
		codecs:     make(map[string]codec.Codec),
	}
}

// RegisterDerive adds a derivation. An existing hook with the same name is overwritten.
func (r *Registry) RegisterDerive(name string, fn attribute.DeriveFunc, dependsOn ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.derives[name] = DeriveHook{Fn: fn, DependsOn: slices.Clone(dependsOn)}
}

// RegisterValidator adds a validation hook.
func (r *Registry) RegisterValidator(name string, fn ValidateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = fn
}

// RegisterCodec adds a custom kind usable by name in schema files.
// Registered codecs shadow the built-ins.
func (r *Registry) RegisterCodec(name string, c codec.Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[name] = c
}

// Derive looks up a derivation by name.
func (r *Registry) Derive(name string) (DeriveHook, error) {
	r.mu.RLock()
	hook, ok := r.derives[name]
	r.mu.RUnlock()
	if !ok {
		return DeriveHook{}, fmt.Errorf("derive hook not found: %s", name)
	}
	return hook, nil
}

// Validator looks up a validation hook by name.
func (r *Registry) Validator(name string) (ValidateFunc, error) {
	r.mu.RLock()
	fn, ok := r.validators[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("validate hook not found: %s", name)
	}
	return fn, nil
}

// Codec resolves a kind name, falling back to codec.Lookup.
// A nil registry only resolves built-ins.
func (r *Registry) Codec(name string) (codec.Codec, error) {
	if r != nil {
		r.mu.RLock()
		c, ok := r.codecs[name]
		r.mu.RUnlock()
		if ok {
			return c, nil
		}
	}
	return codec.Lookup(name)
}

// Names returns the registered hook names of each category, sorted.
func (r *Registry) Names() (derives, validators, codecs []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.derives), sortedKeys(r.validators), sortedKeys(r.codecs)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
