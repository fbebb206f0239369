package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotImplemented is returned when an attribute kind is missing a required hook (e.g. its codec).
var ErrNotImplemented = errors.New("not implemented")

// ErrUnsupported is returned when an operation does not apply to an attribute kind
// (e.g. IsSet or Unset on a nested attribute).
var ErrUnsupported = errors.New("operation not supported")

// ErrUnknownAttribute is returned when a model has no attribute with the requested name.
var ErrUnknownAttribute = errors.New("unknown attribute")

// ErrUnknownKind is returned when a schema references an attribute kind that does not exist.
var ErrUnknownKind = errors.New("unknown attribute kind")

// ErrNotFound is returned when a record cannot be found in storage.
var ErrNotFound = errors.New("record not found")

// ErrNoStorage is returned by persistence operations on a model without storage.
var ErrNoStorage = errors.New("model has no storage")

// ErrDestructed is returned by persistence operations on a removed model.
var ErrDestructed = errors.New("model is destructed")

// Validation failure classifications.
const (
	KindAttribute = "attribute"
	KindNested    = "nested"
	KindRule      = "rule"
)

// ValidationError is a structured validation failure for a single attribute.
type ValidationError struct {
	Attribute string // Attribute name
	Message   string // Human-readable reason
	Kind      string // Classification (attribute, nested, rule)
}

func (e *ValidationError) Error() string {
	if e.Attribute == "" {
		return e.Message
	}
	return fmt.Sprintf("attribute %q: %s", e.Attribute, e.Message)
}

// ValidationErrors aggregates the failures of a model validation.
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// Messages flattens the aggregate into attribute -> message pairs.
func (e *ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		var verr *ValidationError
		if errors.As(err, &verr) {
			out[verr.Attribute] = verr.Message
			continue
		}
		out[""] = err.Error()
	}
	return out
}
