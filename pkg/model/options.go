package model

import (
	"log/slog"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/ports"
)

// DefaultMaxIterations bounds the sweeps of a single recalculation pass.
const DefaultMaxIterations = 32

// Option defines a functional option for configuring a Model.
type Option func(*Model)

// WithLogger sets the logger. Models log nothing by default.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Model) {
		m.hooks = hooks
	}
}

// WithStorage enables Fetch, Save and Remove.
func WithStorage(storage ports.Storage) Option {
	return func(m *Model) {
		m.storage = storage
	}
}

// WithMaxIterations overrides DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxIterations = n
		}
	}
}
