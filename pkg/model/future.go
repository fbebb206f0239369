package model

import (
	"context"
	"sync"
)

// Future is the result of a recalculation pass.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture(err error) *Future {
	f := newFuture()
	f.resolve(err)
	return f
}

func (f *Future) resolve(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the pass settled.
func (f *Future) Done() <-chan struct{} { return f.done }

// Resolved reports whether the pass settled.
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the outcome of a resolved pass, nil while pending.
func (f *Future) Err() error {
	if !f.Resolved() {
		return nil
	}
	return f.err
}

// Wait blocks until the pass settled or ctx is done.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
