// Package spin provides a test-and-set spin lock.
//
// It is the general purpose alternative to the lock-free ring queue:
// a ring guarded by a Lock accepts any number of producers and consumers,
// at the cost of serializing every operation.
package spin

import (
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield is the number of failed attempts after which
// the lock starts yielding the processor between attempts.
const spinsBeforeYield = 100

// Lock is a test-and-set spin lock. The zero value is an unlocked lock.
// A Lock must not be copied after first use.
type Lock struct {
	locked atomic.Bool
}

// Lock acquires the lock, spinning until it is available.
func (l *Lock) Lock() {
	for range spinsBeforeYield {
		if !l.locked.Swap(true) {
			return
		}
	}

	for l.locked.Swap(true) {
		runtime.Gosched()
	}
}

// TryLock tries to acquire the lock without spinning.
func (l *Lock) TryLock() bool {
	return l.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock.
func (l *Lock) Unlock() {
	l.locked.Store(false)
}

// Value is a value guarded by a spin lock.
type Value[T any] struct {
	lock Lock
	data T
}

// NewValue returns a new guarded value.
func NewValue[T any](data T) *Value[T] {
	return &Value[T]{
		data: data,
	}
}

// Do runs fn while holding the lock.
// The pointer passed to fn must not escape the critical section.
func (v *Value[T]) Do(fn func(data *T)) {
	v.lock.Lock()
	defer v.lock.Unlock()

	fn(&v.data)
}
