package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/domain"
)

// Batch runs fn as one operation: every change it makes is settled by a
// single recalculation pass when the outermost operation returns.
func (m *Model) Batch(fn func() error) error {
	m.depth++
	completed := false
	defer func() {
		m.depth--
		// A panicking fn leaves the pass pending for the next operation.
		if completed && m.depth == 0 && m.pending && !m.settling {
			m.settle()
		}
	}()
	err := fn()
	completed = true
	return err
}

// Calculate requests a recalculation pass and returns its future. Requests
// made during the same operation share one pass. Outside an operation the
// pass runs immediately and the returned future is already resolved.
func (m *Model) Calculate() *Future {
	f := m.nextFuture()
	m.requestRecalculation()
	return f
}

// Ready reports the outcome of the pending pass, or of the last pass when
// nothing is pending. Operations settle before they return, so Ready never
// blocks outside event handlers and derivations.
func (m *Model) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.future != nil && m.depth == 0 && !m.settling {
		m.requestRecalculation()
	}
	return m.lastErr
}

// LastError returns the error of the last settled pass.
func (m *Model) LastError() error { return m.lastErr }

func (m *Model) nextFuture() *Future {
	if m.future == nil {
		m.future = newFuture()
	}
	return m.future
}

// requestRecalculation is the owner callback of every attribute. Inside an
// operation it only marks a pass as pending.
func (m *Model) requestRecalculation() {
	m.pending = true
	if m.depth == 0 && !m.settling {
		m.settle()
	}
}

// settle runs passes until no change is pending. Handlers of the "calculate"
// event may request more work; it is picked up by the next round instead of
// recursing. Rounds share the iteration budget.
func (m *Model) settle() {
	m.settling = true
	defer func() { m.settling = false }()

	for rounds := 0; m.pending; rounds++ {
		if rounds >= m.maxIterations {
			m.pending = false
			m.lastErr = &NotConvergedError{Model: m.def.Name, Iterations: rounds}
			m.logger.Error("recalculation rounds exhausted", "model", m.def.Name, "err", m.lastErr)
			m.resolveFuture(m.lastErr)
			return
		}

		start := time.Now()
		iterations, err := m.pass()
		m.lastErr = err

		if err != nil {
			m.logger.Warn("recalculation failed", "model", m.def.Name, "iterations", iterations, "err", err)
		}
		if !m.constructing {
			ev := &domain.CalculateEvent{
				EventBase:  m.eventBase(domain.EventCalculate),
				Iterations: iterations,
				Duration:   time.Since(start),
				Err:        err,
			}
			if m.hooks.OnCalculate != nil {
				m.hooks.OnCalculate(ev)
			}
			m.bus.Trigger(string(domain.EventCalculate), ev)
		}
		m.resolveFuture(err)
	}
}

// pass sweeps the derived attributes in dependency order until a sweep
// changes nothing. Derivation errors do not stop the sweep; the errors of
// the last sweep are returned.
func (m *Model) pass() (int, error) {
	var errs []error
	iterations := 0
	for m.pending {
		if iterations >= m.maxIterations {
			m.pending = false
			return iterations, &NotConvergedError{Model: m.def.Name, Iterations: iterations}
		}
		iterations++
		m.pending = false
		errs = errs[:0]

		for _, name := range m.def.order {
			attr := m.attrs[name]
			value, err := attr.Kind().Derive(scope{model: m, attr: attr})
			if err != nil {
				errs = append(errs, fmt.Errorf("derive %q: %w", name, err))
				continue
			}
			if err := attr.Assign(value); err != nil {
				errs = append(errs, fmt.Errorf("derive %q: %w", name, err))
			}
		}
	}
	return iterations, errors.Join(errs...)
}

func (m *Model) resolveFuture(err error) {
	if f := m.future; f != nil {
		m.future = nil
		f.resolve(err)
	}
}

// scope is the view of the model handed to a derivation.
type scope struct {
	model *Model
	attr  attribute.Attribute
}

func (s scope) Get(name string) (any, error) { return s.model.Get(name) }

func (s scope) Self() domain.Snapshot {
	isSet, _ := s.attr.IsSet()
	return domain.Snapshot{Value: s.attr.Get(), IsSet: isSet}
}
