package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_TriggerOrder(t *testing.T) {
	b := New()
	var got []string

	b.On("change", func(p any) { got = append(got, "first:"+p.(string)) })
	b.On("change", func(p any) { got = append(got, "second:"+p.(string)) })
	b.On("other", func(any) { got = append(got, "other") })

	b.Trigger("change", "x")

	assert.Equal(t, []string{"first:x", "second:x"}, got)
	assert.Equal(t, 2, b.Len("change"))
	assert.Equal(t, 1, b.Len("other"))
	assert.Equal(t, 0, b.Len("missing"))
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	b := New()
	calls := 0
	sub := b.On("calculate", func(any) { calls++ })
	keep := b.On("calculate", func(any) {})

	sub.Close()
	sub.Close()

	b.Trigger("calculate", nil)
	assert.Equal(t, 0, calls)
	assert.True(t, sub.Closed())
	assert.False(t, keep.Closed())
	assert.Equal(t, 1, b.Len("calculate"))

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Close)
}

func TestBus_CloseDuringDispatch(t *testing.T) {
	b := New()
	var later *Subscription
	calls := 0

	b.On("e", func(any) { later.Close() })
	later = b.On("e", func(any) { calls++ })

	b.Trigger("e", nil)
	assert.Equal(t, 0, calls, "handler closed by an earlier handler must be skipped")
	assert.Equal(t, 1, b.Len("e"))
}

func TestBus_SubscribeAndTriggerDuringDispatch(t *testing.T) {
	b := New()
	var order []string

	b.On("outer", func(any) {
		order = append(order, "outer")
		b.On("outer", func(any) { order = append(order, "late") })
		b.Trigger("inner", nil)
	})
	b.On("inner", func(any) { order = append(order, "inner") })

	b.Trigger("outer", nil)
	require.Equal(t, []string{"outer", "inner"}, order)

	order = nil
	b.Trigger("outer", nil)
	assert.Equal(t, []string{"outer", "inner", "late"}, order)
}

func TestBus_Clear(t *testing.T) {
	b := New()
	sub := b.On("a", func(any) { t.Fatal("cleared handler invoked") })
	b.Clear()

	b.Trigger("a", nil)
	assert.True(t, sub.Closed())
	assert.Equal(t, 0, b.Len("a"))
}
