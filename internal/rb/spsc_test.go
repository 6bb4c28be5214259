package rb

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	assert := assert.New(t)

	for _, capacity := range []uint64{0, 1, MaxCapacity + 1, 1 << 62, math.MaxUint64} {
		q, err := New[int](capacity)
		assert.ErrorIs(err, ErrInvalidCapacity)
		assert.Nil(q)
	}

	q, err := New[int](MinCapacity)
	assert.NoError(err)
	assert.Equal(uint64(MinCapacity), q.Cap())
	assert.Zero(q.Len())

	assert.Panics(func() { MustNew[int](1) })
}

func Test_Queue_FullEmpty(t *testing.T) {
	suite := []uint64{2, 3, 7, 64, 100}

	for _, capacity := range suite {
		t.Run(fmt.Sprintf("cap-%d", capacity), func(t *testing.T) {
			assert := assert.New(t)

			q := MustNew[int](capacity)

			_, ok := q.Pop()
			assert.False(ok, "new queue must be empty")

			for i := range int(capacity - 1) {
				assert.True(q.Push(i))
			}
			assert.Equal(capacity-1, q.Len())

			// The sentinel slot is never used
			assert.False(q.Push(-1))
			assert.Equal(capacity-1, q.Len())

			val, ok := q.Pop()
			assert.True(ok)
			assert.Equal(0, val)

			assert.True(q.Push(int(capacity)))
			assert.False(q.Push(-1))
		})
	}
}

func Test_Queue_SingleItem(t *testing.T) {
	assert := assert.New(t)

	q := MustNew[string](MinCapacity)

	for i := range 10 {
		item := fmt.Sprintf("item-%d", i)

		assert.True(q.Push(item))
		assert.False(q.Push("overflow"))

		val, ok := q.Pop()
		assert.True(ok)
		assert.Equal(item, val)

		_, ok = q.Pop()
		assert.False(ok)
	}
}

func Test_Queue_Wraparound(t *testing.T) {
	assert := assert.New(t)

	const capacity = 5
	q := MustNew[int](capacity)

	next := 0
	expected := 0

	// Interleave bursts of different size so the indices wrap at every offset
	for cycle := range 50 {
		burst := cycle%(capacity-1) + 1

		for range burst {
			assert.True(q.Push(next))
			next++
		}

		assert.LessOrEqual(q.Len(), uint64(capacity-1))

		for range burst {
			val, ok := q.Pop()
			assert.True(ok)
			assert.Equal(expected, val)
			expected++
		}
	}

	assert.Zero(q.Len())
}

func Test_Queue_PopReleasesSlot(t *testing.T) {
	assert := assert.New(t)

	q := MustNew[*int](4)

	val := 42
	assert.True(q.Push(&val))

	item, ok := q.Pop()
	assert.True(ok)
	assert.Same(&val, item)

	for _, slot := range q.buffer {
		assert.Nil(slot)
	}
}

func Test_Queue_Drain(t *testing.T) {
	assert := assert.New(t)

	q := MustNew[int](16)

	for i := range 10 {
		assert.True(q.Push(i))
	}

	// Partially consume the queue before teardown
	for range 3 {
		_, ok := q.Pop()
		assert.True(ok)
	}

	released := make(map[int]int)
	drained := q.Drain(func(item int) {
		released[item]++
	})

	assert.Equal(7, drained)
	assert.Len(released, 7)
	for i := 3; i < 10; i++ {
		assert.Equal(1, released[i], "item %d must be released exactly once", i)
	}

	// Draining again must not release anything
	assert.Zero(q.Drain(func(item int) {
		released[item]++
	}))
	assert.Zero(q.Drain(nil))
	assert.Zero(q.Len())
}

func Test_Queue_Concurrent(t *testing.T) {
	suite := []struct {
		capacity uint64
		items    int
	}{
		{2, 10_000},
		{100, 10_000},
		{128, 100_000},
		{1000, 100_000},
	}

	for _, tCase := range suite {
		tName := fmt.Sprintf("cap-%d-items-%d", tCase.capacity, tCase.items)

		t.Run(tName, func(t *testing.T) {
			testConcurrent(t, tCase.capacity, tCase.items)
		})
	}
}

func testConcurrent(t *testing.T, capacity uint64, items int) {
	require := require.New(t)

	q := MustNew[int](capacity)

	var skippedPush atomic.Int64
	var skippedPop atomic.Int64
	var maxLen atomic.Uint64

	wg := &sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()

		for val := range items {
			for !q.Push(val) {
				skippedPush.Add(1)
				runtime.Gosched()
			}

			if l := q.Len(); l > maxLen.Load() {
				maxLen.Store(l)
			}
		}
	}()

	received := make([]int, 0, items)
	for len(received) < items {
		val, ok := q.Pop()
		if !ok {
			skippedPop.Add(1)
			runtime.Gosched()
			continue
		}

		received = append(received, val)
	}

	wg.Wait()

	t.Logf("Skipped push calls: %d", skippedPush.Load())
	t.Logf("Skipped pop calls: %d", skippedPop.Load())

	require.Len(received, items)
	for idx, val := range received {
		require.Equal(idx, val, "FIFO order violated")
	}

	require.LessOrEqual(maxLen.Load(), capacity-1)

	_, ok := q.Pop()
	require.False(ok)
}
