// Package rb provides a bounded lock-free single producer/single consumer
// generic ring queue.
package rb

import (
	"errors"
	"math"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// MinCapacity is the smallest accepted capacity.
// One slot is always kept free, so a queue of capacity 2 holds a single item.
const MinCapacity = 2

// MaxCapacity is the largest accepted capacity (4Gi slots).
const MaxCapacity = 1 << 32

// ErrInvalidCapacity is returned when the capacity is lower than MinCapacity
// or greater than MaxCapacity.
var ErrInvalidCapacity = errors.New("ring queue: capacity must be between 2 and 2^32")

// Queue is a bounded lock-free single producer/single consumer ring queue.
//
// Exactly one goroutine may call Push and exactly one goroutine may call Pop.
// The two may be the same goroutine. Calling Push (or Pop) from more than one
// goroutine at the same time is not detected and corrupts the queue.
//
// One slot is reserved as a sentinel, so a queue of capacity N holds at most
// N-1 items: writeIdx == readIdx means empty and writeIdx+1 == readIdx
// (modulo capacity) means full.
//
// The producer publishes a slot by storing writeIdx after it has written the
// slot, the consumer releases a slot by storing readIdx after it has moved the
// value out. Go atomics are sequentially consistent, which covers the
// acquire/release pairing the protocol needs.
type Queue[T any] struct {
	// writeIdx is written only by the producer
	writeIdx atomic.Uint64

	// cachedReadIdx is the producer's last observed readIdx
	cachedReadIdx uint64

	_ cpu.CacheLinePad

	// readIdx is written only by the consumer
	readIdx atomic.Uint64

	// cachedWriteIdx is the consumer's last observed writeIdx
	cachedWriteIdx uint64

	_ cpu.CacheLinePad

	capacity uint64

	// buffer holds capacity slots, the zero value marks an empty slot
	buffer []T
}

// New returns a new ring queue with the given capacity.
// It returns ErrInvalidCapacity if capacity is out of [MinCapacity, MaxCapacity].
func New[T any](capacity uint64) (*Queue[T], error) {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return nil, ErrInvalidCapacity
	}

	// 32-bit platforms
	if capacity > math.MaxInt {
		return nil, ErrInvalidCapacity
	}

	return &Queue[T]{
		capacity: capacity,
		buffer:   make([]T, capacity),
	}, nil
}

// MustNew is like New but panics if the capacity is invalid.
func MustNew[T any](capacity uint64) *Queue[T] {
	q, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Queue[T]) next(idx uint64) uint64 {
	idx++
	if idx == q.capacity {
		return 0
	}
	return idx
}

// Push enqueues the item. It must be called only by the producer.
// It returns false, without touching the queue, when the queue is full;
// in that case the caller still owns the item.
func (q *Queue[T]) Push(item T) bool {
	// Only the producer stores writeIdx
	writeIdx := q.writeIdx.Load()
	nextWriteIdx := q.next(writeIdx)

	if nextWriteIdx == q.cachedReadIdx {
		// Looks full, refresh the consumer position
		q.cachedReadIdx = q.readIdx.Load()
		if nextWriteIdx == q.cachedReadIdx {
			return false
		}
	}

	q.buffer[writeIdx] = item

	// Publish the slot
	q.writeIdx.Store(nextWriteIdx)

	return true
}

// Pop dequeues the oldest item. It must be called only by the consumer.
// It returns false when the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T

	// Only the consumer stores readIdx
	readIdx := q.readIdx.Load()

	if readIdx == q.cachedWriteIdx {
		// Looks empty, refresh the producer position
		q.cachedWriteIdx = q.writeIdx.Load()
		if readIdx == q.cachedWriteIdx {
			return zero, false
		}
	}

	// Move the item out, the queue must not keep a reference to it
	item := q.buffer[readIdx]
	q.buffer[readIdx] = zero

	// Hand the slot back to the producer
	q.readIdx.Store(q.next(readIdx))

	return item, true
}

// Len returns the number of items in the queue.
// The value is a snapshot and may be stale when the queue is in use.
func (q *Queue[T]) Len() uint64 {
	readIdx := q.readIdx.Load()
	writeIdx := q.writeIdx.Load()

	if writeIdx < readIdx {
		return writeIdx + q.capacity - readIdx
	}

	return writeIdx - readIdx
}

// Cap returns the capacity of the queue.
// The queue holds at most Cap()-1 items.
func (q *Queue[T]) Cap() uint64 {
	return q.capacity
}

// Drain removes every item still in the queue and passes it to release,
// which may be nil. It returns the number of removed items.
//
// Drain is a teardown operation: it must be called only after both the
// producer and the consumer have stopped. A second call returns 0.
func (q *Queue[T]) Drain(release func(item T)) int {
	drained := 0

	for {
		item, ok := q.Pop()
		if !ok {
			return drained
		}

		if release != nil {
			release(item)
		}
		drained++
	}
}
