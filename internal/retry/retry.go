package retry

import "context"

// Pusher is the producer side of a queue.
type Pusher[T any] interface {
	Push(item T) bool
}

// Popper is the consumer side of a queue.
type Popper[T any] interface {
	Pop() (T, bool)
}

// Push pushes the item, waiting on the policy while the queue is full.
// If the context is done before the item is pushed, the context error
// is returned and the caller still owns the item.
func Push[T any](ctx context.Context, q Pusher[T], item T, p Policy) error {
	for !q.Push(item) {
		if err := p.Wait(ctx); err != nil {
			return err
		}
	}

	p.Reset()

	return nil
}

// Pop pops an item, waiting on the policy while the queue is empty.
// If the context is done before an item is available,
// the context error is returned.
func Pop[T any](ctx context.Context, q Popper[T], p Policy) (T, error) {
	for {
		item, ok := q.Pop()
		if ok {
			p.Reset()
			return item, nil
		}

		if err := p.Wait(ctx); err != nil {
			return item, err
		}
	}
}
