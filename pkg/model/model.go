package model

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/facet/internal/logging"
	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/bus"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/ports"
)

// Model is an instance of a Definition.
type Model struct {
	def     *Definition
	attrs   map[string]attribute.Attribute
	bus     *bus.Bus
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	storage ports.Storage

	maxIterations int

	// Run-to-completion scheduler state.
	depth    int
	pending  bool
	settling bool
	future   *Future
	lastErr  error

	constructing bool
	destructed   bool
}

var _ attribute.Submodel = (*Model)(nil)

// New creates a model. values seeds attributes by name; missing attributes
// start unset. Derived attributes are calculated and the result is committed
// as the baseline, so a fresh model is never dirty.
func New(def *Definition, values map[string]any, opts ...Option) (*Model, error) {
	m := &Model{
		def:           def,
		attrs:         make(map[string]attribute.Attribute, len(def.Attributes)),
		bus:           bus.New(),
		logger:        logging.NewNop(),
		maxIterations: DefaultMaxIterations,
		constructing:  true,
	}
	for _, opt := range opts {
		opt(m)
	}

	for name := range values {
		if _, ok := def.index[name]; !ok {
			return nil, fmt.Errorf("model %q: %q: %w", def.Name, name, domain.ErrUnknownAttribute)
		}
	}

	owner := attribute.Owner{
		NotifyChanged:        m.notifyChanged,
		NotifyCommitted:      m.notifyCommitted,
		RequestRecalculation: m.requestRecalculation,
	}

	m.depth++
	for _, spec := range def.Attributes {
		attr, err := attribute.New(spec.Name, spec.Kind, owner, values[spec.Name])
		if err != nil {
			m.closeAttributes()
			return nil, fmt.Errorf("model %q: %w", def.Name, err)
		}
		m.attrs[spec.Name] = attr
	}
	m.pending = len(def.order) > 0
	m.depth--
	m.settle()

	for _, name := range def.Names() {
		m.attrs[name].Commit(domain.DefaultBranch)
	}
	m.constructing = false

	return m, nil
}

// Definition returns the definition the model was built from.
func (m *Model) Definition() *Definition { return m.def }

// Names returns attribute names in declaration order.
func (m *Model) Names() []string { return m.def.Names() }

// Attribute returns the named attribute.
func (m *Model) Attribute(name string) (attribute.Attribute, error) {
	attr, ok := m.attrs[name]
	if !ok {
		return nil, fmt.Errorf("model %q: %q: %w", m.def.Name, name, domain.ErrUnknownAttribute)
	}
	return attr, nil
}

// Get returns the external value of an attribute.
func (m *Model) Get(name string) (any, error) {
	attr, err := m.Attribute(name)
	if err != nil {
		return nil, err
	}
	return attr.Get(), nil
}

// Set assigns one attribute. Nil unsets it.
func (m *Model) Set(name string, value any) error {
	attr, err := m.Attribute(name)
	if err != nil {
		return err
	}
	return m.Batch(func() error { return attr.Set(value) })
}

// SetAll assigns several attributes in declaration order and settles once.
// Unknown names fail before anything is assigned.
func (m *Model) SetAll(values map[string]any) error {
	for name := range values {
		if _, err := m.Attribute(name); err != nil {
			return err
		}
	}
	return m.Batch(func() error {
		for _, name := range m.def.Names() {
			value, ok := values[name]
			if !ok {
				continue
			}
			if err := m.attrs[name].Set(value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Unset restores the default of an attribute.
func (m *Model) Unset(name string) error {
	attr, err := m.Attribute(name)
	if err != nil {
		return err
	}
	return m.Batch(attr.Unset)
}

// IsSet reports whether an attribute holds an explicit value.
func (m *Model) IsSet(name string) (bool, error) {
	attr, err := m.Attribute(name)
	if err != nil {
		return false, err
	}
	return attr.IsSet()
}

// IsChanged reports whether any attribute differs from branch.
func (m *Model) IsChanged(branch string) bool {
	for _, name := range m.def.Names() {
		if m.attrs[name].IsChanged(branch) {
			return true
		}
	}
	return false
}

// Changes lists the attributes that differ from branch.
func (m *Model) Changes(branch string) []string {
	var changed []string
	for _, name := range m.def.Names() {
		if m.attrs[name].IsChanged(branch) {
			changed = append(changed, name)
		}
	}
	return changed
}

// Commit snapshots every attribute into branch and reports whether anything
// was committed. The model-level "[branch:]commit" event fires only then.
func (m *Model) Commit(branch string) bool {
	committed := false
	_ = m.Batch(func() error {
		for _, name := range m.def.Names() {
			if m.attrs[name].Commit(branch) {
				committed = true
			}
		}
		return nil
	})
	if committed && !m.constructing {
		m.bus.Trigger(domain.CommitEventName(branch, ""), domain.BranchOrDefault(branch))
	}
	return committed
}

// Revert restores every attribute from branch and reports whether anything changed.
func (m *Model) Revert(branch string) bool {
	reverted := false
	_ = m.Batch(func() error {
		for _, name := range m.def.Names() {
			if m.attrs[name].Revert(branch) {
				reverted = true
			}
		}
		return nil
	})
	return reverted
}

// Previous returns the value an attribute held before its latest change.
func (m *Model) Previous(name string) (any, error) {
	attr, err := m.Attribute(name)
	if err != nil {
		return nil, err
	}
	return attr.Previous(), nil
}

// LastCommitted returns the value an attribute holds in branch.
func (m *Model) LastCommitted(name, branch string) (any, error) {
	attr, err := m.Attribute(name)
	if err != nil {
		return nil, err
	}
	return attr.LastCommitted(branch), nil
}

// Validate waits for the model to settle, then validates every attribute.
// Failures are aggregated into a *domain.ValidationErrors.
func (m *Model) Validate(ctx context.Context) error {
	if err := m.Ready(ctx); err != nil {
		return err
	}

	var errs []error
	for _, name := range m.def.Names() {
		attr := m.attrs[name]
		err := attr.Validate(ctx)
		if err == nil {
			continue
		}
		if _, nested := attr.(*attribute.Nested); nested {
			err = &nestedValidationError{
				ValidationError: domain.ValidationError{Attribute: name, Message: err.Error(), Kind: domain.KindNested},
				cause:           err,
			}
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &domain.ValidationErrors{Errors: errs}
	}
	return nil
}

// nestedValidationError keeps the sub-model failure reachable through errors.As.
type nestedValidationError struct {
	domain.ValidationError
	cause error
}

func (e *nestedValidationError) Unwrap() []error {
	return []error{&e.ValidationError, e.cause}
}

// ToJSON returns the external representation of every attribute.
func (m *Model) ToJSON() map[string]any {
	out := make(map[string]any, len(m.attrs))
	for _, name := range m.def.Names() {
		out[name] = m.attrs[name].ToJSON()
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToJSON())
}

// On registers a handler on the model's event stream.
func (m *Model) On(event string, handler bus.Handler) *bus.Subscription {
	return m.bus.On(event, handler)
}

// Trigger emits a custom event on the model's event stream.
func (m *Model) Trigger(event string, payload any) {
	m.bus.Trigger(event, payload)
}

// Destroy releases every subscription the model holds or serves and
// triggers "destruct".
func (m *Model) Destroy() {
	if m.destructed {
		return
	}
	m.destructed = true
	m.closeAttributes()
	m.bus.Trigger(string(domain.EventDestruct), m)
	m.bus.Clear()
}

func (m *Model) closeAttributes() {
	for _, attr := range m.attrs {
		attr.Close()
	}
}

func (m *Model) notifyChanged(name string, fromNested bool) {
	if m.constructing {
		return
	}
	attr := m.attrs[name]
	var value any
	if attr != nil {
		value = attr.Get()
	}
	ev := &domain.ChangeEvent{
		EventBase:  m.eventBase(domain.EventChange),
		Attribute:  name,
		Value:      value,
		FromNested: fromNested,
	}
	m.logger.Debug("attribute changed", "model", m.def.Name, "attribute", name, "from_nested", fromNested)
	if m.hooks.OnChange != nil {
		m.hooks.OnChange(ev)
	}
	m.bus.Trigger(domain.ChangeEventName(name), ev)
	m.bus.Trigger(string(domain.EventChange), ev)
}

func (m *Model) notifyCommitted(name, branch string) {
	if m.constructing {
		return
	}
	ev := &domain.CommitEvent{
		EventBase: m.eventBase(domain.EventCommit),
		Attribute: name,
		Branch:    branch,
	}
	if m.hooks.OnCommit != nil {
		m.hooks.OnCommit(ev)
	}
	m.bus.Trigger(domain.CommitEventName(branch, name), ev)
}

func (m *Model) eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Model: m.def.Name}
}
