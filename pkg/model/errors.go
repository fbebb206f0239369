package model

import (
	"fmt"
	"strings"
)

// CycleError reports a derivation dependency cycle in a definition.
type CycleError struct {
	Model string
	Path  []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("model %q: dependency cycle detected: %s", e.Model, strings.Join(e.Path, " -> "))
}

// NewCycleError creates a CycleError.
func NewCycleError(model string, path []string) *CycleError {
	return &CycleError{Model: model, Path: path}
}

// NotConvergedError is returned when a recalculation pass keeps changing
// derived attributes past the iteration limit.
type NotConvergedError struct {
	Model      string
	Iterations int
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("model %q: recalculation did not converge after %d iterations", e.Model, e.Iterations)
}
