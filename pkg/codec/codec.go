package codec

import (
	"fmt"

	"github.com/aretw0/facet/pkg/domain"
)

// Codec defines the contract between external values and canonical values.
type Codec interface {
	// Name returns the human-readable name of the codec (e.g., "string", "number").
	Name() string
	// Canonicalize converts an external value into its canonical form.
	Canonicalize(external any) (any, error)
	// External converts a canonical value back to its external form.
	External(canonical any) any
	// Equal reports whether two canonical values are the same.
	Equal(a, b any) bool
}

// FuncCodec adapts plain functions into a Codec.
// Nil External means identity; nil Equal means ==.
type FuncCodec struct {
	CodecName    string
	ToCanonical  func(any) (any, error)
	ToExternal   func(any) any
	EqualCompare func(a, b any) bool
}

func (c *FuncCodec) Name() string { return c.CodecName }

func (c *FuncCodec) Canonicalize(external any) (any, error) {
	if c.ToCanonical == nil {
		return nil, fmt.Errorf("codec %s: canonicalize: %w", c.CodecName, domain.ErrNotImplemented)
	}
	return c.ToCanonical(external)
}

func (c *FuncCodec) External(canonical any) any {
	if c.ToExternal == nil {
		return canonical
	}
	return c.ToExternal(canonical)
}

func (c *FuncCodec) Equal(a, b any) bool {
	if c.EqualCompare == nil {
		return comparableEqual(a, b)
	}
	return c.EqualCompare(a, b)
}

// Func creates a codec from a canonicalize function, with identity External
// and == equality.
func Func(name string, canonicalize func(any) (any, error)) Codec {
	return &FuncCodec{CodecName: name, ToCanonical: canonicalize}
}

// Lookup resolves a built-in codec by name.
// Supports: "string", "number", "integer", "boolean", "time", "list", "map".
func Lookup(name string) (Codec, error) {
	switch name {
	case "string":
		return String(), nil
	case "number", "float":
		return Number(), nil
	case "integer", "int":
		return Integer(), nil
	case "boolean", "bool":
		return Boolean(), nil
	case "time":
		return Time(), nil
	case "list":
		return List(), nil
	case "map", "object":
		return Map(), nil
	default:
		return nil, fmt.Errorf("codec %q: %w", name, domain.ErrUnknownKind)
	}
}

// comparableEqual compares with == and never panics on uncomparable dynamic types.
func comparableEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}
