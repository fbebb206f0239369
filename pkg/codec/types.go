package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/spf13/cast"
)

// --- Built-in Codec Implementations ---

// StringCodec canonicalizes values to string.
type StringCodec struct{}

func (c *StringCodec) Name() string { return "string" }

func (c *StringCodec) Canonicalize(external any) (any, error) {
	s, err := cast.ToStringE(external)
	if err != nil {
		return nil, fmt.Errorf("expected string, got %T: %w", external, err)
	}
	return s, nil
}

func (c *StringCodec) External(canonical any) any { return canonical }

func (c *StringCodec) Equal(a, b any) bool { return comparableEqual(a, b) }

// NumberCodec canonicalizes values to float64.
type NumberCodec struct{}

func (c *NumberCodec) Name() string { return "number" }

func (c *NumberCodec) Canonicalize(external any) (any, error) {
	f, err := cast.ToFloat64E(external)
	if err != nil {
		return nil, fmt.Errorf("expected number, got %T: %w", external, err)
	}
	return f, nil
}

func (c *NumberCodec) External(canonical any) any { return canonical }

// Equal treats NaN as equal to itself.
func (c *NumberCodec) Equal(a, b any) bool {
	fa, okA := a.(float64)
	fb, okB := b.(float64)
	if okA && okB && math.IsNaN(fa) && math.IsNaN(fb) {
		return true
	}
	return comparableEqual(a, b)
}

// IntegerCodec canonicalizes values to int64.
// Floats that are not whole numbers are rejected.
type IntegerCodec struct{}

func (c *IntegerCodec) Name() string { return "integer" }

func (c *IntegerCodec) Canonicalize(external any) (any, error) {
	switch v := external.(type) {
	case float32:
		if float32(int64(v)) != v {
			return nil, fmt.Errorf("expected integer, got float (not a whole number)")
		}
	case float64:
		if float64(int64(v)) != v {
			return nil, fmt.Errorf("expected integer, got float (not a whole number)")
		}
	}
	i, err := cast.ToInt64E(external)
	if err != nil {
		return nil, fmt.Errorf("expected integer, got %T: %w", external, err)
	}
	return i, nil
}

func (c *IntegerCodec) External(canonical any) any { return canonical }

func (c *IntegerCodec) Equal(a, b any) bool { return comparableEqual(a, b) }

// BooleanCodec canonicalizes values to bool.
type BooleanCodec struct{}

func (c *BooleanCodec) Name() string { return "boolean" }

func (c *BooleanCodec) Canonicalize(external any) (any, error) {
	b, err := cast.ToBoolE(external)
	if err != nil {
		return nil, fmt.Errorf("expected boolean, got %T: %w", external, err)
	}
	return b, nil
}

func (c *BooleanCodec) External(canonical any) any { return canonical }

func (c *BooleanCodec) Equal(a, b any) bool { return comparableEqual(a, b) }

// TimeCodec canonicalizes values to time.Time (UTC). Strings are parsed with
// the formats understood by cast.
type TimeCodec struct{}

func (c *TimeCodec) Name() string { return "time" }

func (c *TimeCodec) Canonicalize(external any) (any, error) {
	t, err := cast.ToTimeE(external)
	if err != nil {
		return nil, fmt.Errorf("expected time, got %T: %w", external, err)
	}
	return t.UTC(), nil
}

func (c *TimeCodec) External(canonical any) any { return canonical }

func (c *TimeCodec) Equal(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if !okA || !okB {
		return comparableEqual(a, b)
	}
	return ta.Equal(tb)
}

// ListCodec canonicalizes values to []any. Equality compares the JSON encoding,
// so []any{1} and []any{1.0} are the same list. Canonical and external values
// are deep copies, never shared with the caller.
type ListCodec struct{}

func (c *ListCodec) Name() string { return "list" }

func (c *ListCodec) Canonicalize(external any) (any, error) {
	rv := reflect.ValueOf(external)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected list, got %T", external)
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = deepCopy(rv.Index(i).Interface())
	}
	return out, nil
}

func (c *ListCodec) External(canonical any) any { return deepCopy(canonical) }

func (c *ListCodec) Equal(a, b any) bool { return jsonEqual(a, b) }

// MapCodec canonicalizes values to map[string]any. Equality compares the JSON
// encoding. Like ListCodec it never shares nested maps or slices with callers.
type MapCodec struct{}

func (c *MapCodec) Name() string { return "map" }

func (c *MapCodec) Canonicalize(external any) (any, error) {
	if doc, ok := external.(domain.Document); ok {
		return map[string]any(doc.Clone()), nil
	}
	m, err := cast.ToStringMapE(external)
	if err == nil {
		return deepCopy(m), nil
	}
	rv := reflect.ValueOf(external)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("expected map, got %T: %w", external, err)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = deepCopy(iter.Value().Interface())
	}
	return out, nil
}

func (c *MapCodec) External(canonical any) any { return deepCopy(canonical) }

func (c *MapCodec) Equal(a, b any) bool { return jsonEqual(a, b) }

// AbstractCodec belongs to base attribute kinds that never got a concrete codec.
// Canonicalize always fails with domain.ErrNotImplemented.
type AbstractCodec struct{}

func (c *AbstractCodec) Name() string { return "abstract" }

func (c *AbstractCodec) Canonicalize(any) (any, error) {
	return nil, fmt.Errorf("abstract codec: %w", domain.ErrNotImplemented)
}

func (c *AbstractCodec) External(canonical any) any { return canonical }

func (c *AbstractCodec) Equal(a, b any) bool { return comparableEqual(a, b) }

// deepCopy clones maps and slices recursively, keeping their types.
// Other values, pointers included, are returned as is.
func deepCopy(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyValue(iter.Value(), rv.Type().Elem()))
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(copyValue(rv.Index(i), rv.Type().Elem()))
		}
		return out.Interface()
	}
	return v
}

func copyValue(rv reflect.Value, typ reflect.Type) reflect.Value {
	c := deepCopy(rv.Interface())
	if c == nil {
		return reflect.Zero(typ)
	}
	return reflect.ValueOf(c)
}

func jsonEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(left, right)
}

// --- Factory Functions ---

// String creates a string codec.
func String() Codec { return &StringCodec{} }

// Number creates a float64 codec.
func Number() Codec { return &NumberCodec{} }

// Integer creates an int64 codec.
func Integer() Codec { return &IntegerCodec{} }

// Boolean creates a bool codec.
func Boolean() Codec { return &BooleanCodec{} }

// Time creates a time.Time codec.
func Time() Codec { return &TimeCodec{} }

// List creates a []any codec.
func List() Codec { return &ListCodec{} }

// Map creates a map[string]any codec.
func Map() Codec { return &MapCodec{} }

// Abstract creates the codec of a kind without a concrete definition.
func Abstract() Codec { return &AbstractCodec{} }
