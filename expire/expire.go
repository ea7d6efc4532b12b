// Package expire provides a single-value cache with a fixed time-to-live.
//
// A Value holds the result of a computation together with the time it was
// computed. Reads within the TTL return the stored result; reads after the
// TTL recompute and replace it wholesale.
package expire

import "time"

// Value caches one computed value for a fixed duration.
//
// Value is not safe for concurrent use. Callers are expected to serialize
// access, typically under the owning aggregate's lock.
type Value[T any] struct {
	ttl time.Duration

	val T
	at  time.Time
	set bool
}

// NewValue creates an empty cache with the given TTL.
// The first Get always computes.
func NewValue[T any](ttl time.Duration) *Value[T] {
	return &Value[T]{ttl: ttl}
}

// Get returns the cached value if it is still fresh at now, otherwise it
// invokes compute, stores the result with now as its computation time, and
// returns it.
//
// If compute fails, the error is returned and the cache is left untouched:
// the previous value and its timestamp survive, so the next Get retries
// instead of serving a cached failure.
func (v *Value[T]) Get(now time.Time, compute func() (T, error)) (T, error) {
	if v.Fresh(now) {
		return v.val, nil
	}

	val, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}

	v.val = val
	v.at = now
	v.set = true
	return val, nil
}

// Peek returns the stored value and its computation time without computing.
// The second return is false if nothing has been stored or the value has
// expired at now.
func (v *Value[T]) Peek(now time.Time) (T, time.Time, bool) {
	if !v.Fresh(now) {
		var zero T
		return zero, time.Time{}, false
	}
	return v.val, v.at, true
}

// Fresh reports whether a stored value exists and has not expired at now.
// A value is stale strictly after the TTL elapses.
func (v *Value[T]) Fresh(now time.Time) bool {
	return v.set && now.Sub(v.at) <= v.ttl
}

// ComputedAt returns the time of the last successful computation.
// The zero time means nothing has been computed yet.
func (v *Value[T]) ComputedAt() time.Time {
	return v.at
}

// Invalidate drops the stored value so the next Get recomputes.
func (v *Value[T]) Invalidate() {
	var zero T
	v.val = zero
	v.at = time.Time{}
	v.set = false
}
