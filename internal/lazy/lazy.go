// Package lazy provides a single-assignment deferred value.
//
// A Value wraps a computation that runs at most once, on the first Get.
// Both the result and the error are kept: a failed computation is not retried.
package lazy

import (
	"context"
	"sync"
)

// Func computes the value of a lazy cell.
type Func[T any] func(ctx context.Context) (T, error)

// Value is a deferred computation. The zero Value is not usable; use New.
type Value[T any] struct {
	mu   sync.Mutex
	fn   Func[T]
	done bool
	val  T
	err  error
}

// New returns a Value that will compute fn when first forced.
func New[T any](fn Func[T]) *Value[T] {
	return &Value[T]{fn: fn}
}

// Get forces the value. Only the first call runs the computation; its ctx is the one used.
// Concurrent callers block until that computation finishes.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.done {
		fn := v.fn
		v.fn = nil
		v.val, v.err = fn(ctx)
		v.done = true
	}
	return v.val, v.err
}

// Forced reports whether the computation has already run.
func (v *Value[T]) Forced() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.done
}
