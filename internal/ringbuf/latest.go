// Package ringbuf provides the two lock-free channel primitives the
// gateway's workers use to talk to each other: LatestValue, a single-slot
// latest-wins mailbox, and SpscOverwrite, a bounded ring that drops its
// oldest element rather than ever blocking the producer.
//
// Grounded on the original C++ gateway's gateway/latest_value.hpp and
// gateway/spsc_overwrite_ring.hpp (see original_source/cpp_gateway),
// translated to the idiomatic Go primitive for "publish a whole new
// immutable value and let readers see it atomically": atomic.Pointer.
package ringbuf

import "sync/atomic"

// LatestValue is a single-producer (by convention), multi-reader mailbox.
// Store publishes a value; Load returns the most recently published value,
// or the zero value and ok=false if nothing has been stored yet. Readers
// never observe a half-updated record because the published value is a
// freshly allocated, fully-built copy swapped in atomically.
type LatestValue[T any] struct {
	p atomic.Pointer[T]
}

// Store publishes v as the new latest value. It never blocks.
func (lv *LatestValue[T]) Store(v T) {
	vv := v
	lv.p.Store(&vv)
}

// Load returns the most recently stored value. ok is false if Store has
// never been called.
func (lv *LatestValue[T]) Load() (T, bool) {
	p := lv.p.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// LoadOrDefault returns the most recently stored value, or the zero value
// of T if nothing has been stored yet. This matches the C++ API's
// load_or_default, used by hot loops that want a value now with no branch.
func (lv *LatestValue[T]) LoadOrDefault() T {
	v, _ := lv.Load()
	return v
}
