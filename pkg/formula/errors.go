package formula

import (
	"errors"
	"fmt"
)

// Error reports a formula that failed to compile or evaluate.
type Error struct {
	Engine Engine
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("formula: %s %q: %v", e.Engine, e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrap(engine Engine, source string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Engine: engine, Source: source, Err: err}
}
