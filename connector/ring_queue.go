package connector

import (
	"context"
	"sync/atomic"

	"github.com/FerroO2000/ringq/internal"
	"github.com/FerroO2000/ringq/internal/config"
	"github.com/FerroO2000/ringq/internal/rb"
	"github.com/FerroO2000/ringq/internal/retry"
)

//////////////
//  CONFIG  //
//////////////

// DefaultRingQueueCapacity is the default capacity of a ring queue connector.
const DefaultRingQueueCapacity = 1024

// RingQueueConfig is the configuration of a ring queue connector.
type RingQueueConfig struct {
	// Name is used to identify the connector in the telemetry.
	//
	// Default: "ring_queue"
	Name string

	// Capacity is the number of slots of the ring queue.
	// One slot is always kept free, so the connector holds
	// at most Capacity-1 items.
	//
	// Default: 1024
	Capacity uint64

	// WriteRetry is the retry policy used by the writer when the queue is full.
	WriteRetry *retry.Config

	// ReadRetry is the retry policy used by the reader when the queue is empty.
	ReadRetry *retry.Config
}

// DefaultRingQueueConfig returns the default configuration
// of a ring queue connector with the given capacity.
func DefaultRingQueueConfig(capacity uint64) *RingQueueConfig {
	return &RingQueueConfig{
		Name:       "ring_queue",
		Capacity:   capacity,
		WriteRetry: retry.DefaultConfig(),
		ReadRetry:  retry.DefaultConfig(),
	}
}

// Validate checks the configuration.
func (c *RingQueueConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotLower(ac, "Capacity", &c.Capacity, rb.MinCapacity, DefaultRingQueueCapacity)
	config.CheckNotHigher(ac, "Capacity", &c.Capacity, rb.MaxCapacity, DefaultRingQueueCapacity)

	if c.WriteRetry == nil {
		c.WriteRetry = retry.DefaultConfig()
	}
	c.WriteRetry.Validate(ac.Nested("WriteRetry"))

	if c.ReadRetry == nil {
		c.ReadRetry = retry.DefaultConfig()
	}
	c.ReadRetry.Validate(ac.Nested("ReadRetry"))
}

///////////////
//  METRICS  //
///////////////

type ringQueueMetrics struct {
	writtenItems atomic.Int64
	readItems    atomic.Int64
	fullRetries  atomic.Int64
	emptyRetries atomic.Int64
	drainedItems atomic.Int64
}

/////////////////
//  CONNECTOR  //
/////////////////

var _ Connector[any] = (*RingQueue[any])(nil)

// RingQueue is a connector backed by a lock-free
// single producer/single consumer ring queue.
//
// The writer goroutine calls Write and Close,
// the reader goroutine calls Read.
type RingQueue[T any] struct {
	tel *internal.Telemetry

	queue *rb.Queue[T]

	writePolicy retry.Policy
	readPolicy  retry.Policy
	writeKind   retry.Kind
	readKind    retry.Kind

	isClosed atomic.Bool

	metrics ringQueueMetrics
}

// NewRawRingQueue returns a new ring queue connector for any item type.
// An invalid configuration is fixed with the default values.
func NewRawRingQueue[T any](cfg *RingQueueConfig) *RingQueue[T] {
	if cfg.Name == "" {
		cfg.Name = "ring_queue"
	}

	tel := internal.NewTelemetry("connector", cfg.Name)

	validator := config.NewValidator(tel)
	validator.Validate(cfg)

	rq := &RingQueue[T]{
		tel: tel,

		queue: rb.MustNew[T](cfg.Capacity),

		writePolicy: retry.New(cfg.WriteRetry),
		readPolicy:  retry.New(cfg.ReadRetry),
		writeKind:   cfg.WriteRetry.Kind,
		readKind:    cfg.ReadRetry.Kind,
	}

	rq.initMetrics()

	return rq
}

// NewRingQueue returns a new ring queue connector for messages.
func NewRingQueue[T msgEnv](cfg *RingQueueConfig) *RingQueue[*msg[T]] {
	return NewRawRingQueue[*msg[T]](cfg)
}

func (rq *RingQueue[T]) initMetrics() {
	rq.tel.NewCounter("written_items", func() int64 { return rq.metrics.writtenItems.Load() })
	rq.tel.NewCounter("read_items", func() int64 { return rq.metrics.readItems.Load() })
	rq.tel.NewCounter("full_retries", func() int64 { return rq.metrics.fullRetries.Load() })
	rq.tel.NewCounter("empty_retries", func() int64 { return rq.metrics.emptyRetries.Load() })
	rq.tel.NewCounter("drained_items", func() int64 { return rq.metrics.drainedItems.Load() })
	rq.tel.NewGauge("queue_length", func() int64 { return int64(rq.queue.Len()) })
}

// Write writes the item into the queue, waiting on the write retry policy
// while the queue is full. It returns ErrClosed if the connector is closed
// (the caller still owns the item) or the context error if the context
// is done before the item is written.
func (rq *RingQueue[T]) Write(ctx context.Context, item T) error {
	if rq.isClosed.Load() {
		return ErrClosed
	}

	retries := 0
	for !rq.queue.Push(item) {
		if retries == 0 {
			rq.tel.LogDebug("queue full, writer waiting", "policy", rq.writeKind)
		}
		retries++
		rq.metrics.fullRetries.Add(1)

		if rq.isClosed.Load() {
			return ErrClosed
		}

		if err := rq.writePolicy.Wait(ctx); err != nil {
			rq.tel.LogDebug("writer stopped waiting", "retries", retries, "reason", err)
			return err
		}
	}

	if retries > 0 {
		rq.tel.LogDebug("writer resumed", "retries", retries)
	}

	rq.writePolicy.Reset()
	rq.metrics.writtenItems.Add(1)

	return nil
}

// Read reads an item from the queue, waiting on the read retry policy
// while the queue is empty. Items written before Close are still returned;
// once the connector is closed and empty, it returns ErrClosed.
func (rq *RingQueue[T]) Read(ctx context.Context) (T, error) {
	retries := 0
	for {
		item, ok := rq.queue.Pop()
		if ok {
			if retries > 0 {
				rq.tel.LogDebug("reader resumed", "retries", retries)
			}
			return rq.onRead(item), nil
		}

		if rq.isClosed.Load() {
			// The writer may have pushed a last item right before closing
			item, ok = rq.queue.Pop()
			if ok {
				return rq.onRead(item), nil
			}

			return item, ErrClosed
		}

		if retries == 0 {
			rq.tel.LogDebug("queue empty, reader waiting", "policy", rq.readKind)
		}
		retries++
		rq.metrics.emptyRetries.Add(1)

		if err := rq.readPolicy.Wait(ctx); err != nil {
			rq.tel.LogDebug("reader stopped waiting", "retries", retries, "reason", err)
			return item, err
		}
	}
}

func (rq *RingQueue[T]) onRead(item T) T {
	rq.readPolicy.Reset()
	rq.metrics.readItems.Add(1)
	return item
}

// Close closes the connector. It is safe to call it more than once.
func (rq *RingQueue[T]) Close() {
	if rq.isClosed.CompareAndSwap(false, true) {
		rq.tel.LogInfo("closed", "pending_items", rq.queue.Len())
	}
}

// IsClosed states whether the connector is closed.
func (rq *RingQueue[T]) IsClosed() bool {
	return rq.isClosed.Load()
}

// Len returns the number of items in the queue.
func (rq *RingQueue[T]) Len() uint64 {
	return rq.queue.Len()
}

// Cap returns the capacity of the queue.
func (rq *RingQueue[T]) Cap() uint64 {
	return rq.queue.Cap()
}

// Drain closes the connector and releases every item left in the queue.
// It must be called only after both the writer and the reader have stopped.
// It also unregisters the metrics of the connector.
// It returns the number of released items.
func (rq *RingQueue[T]) Drain(release func(item T)) int {
	rq.Close()

	drained := rq.queue.Drain(release)
	rq.metrics.drainedItems.Add(int64(drained))

	if drained > 0 {
		rq.tel.LogInfo("drained pending items", "count", drained)
	}

	rq.tel.UnregisterMetrics()

	return drained
}

// DestroyAll drains a message connector, destroying every pending message.
func DestroyAll[T msgEnv](rq *RingQueue[*msg[T]]) int {
	return rq.Drain(func(item *msg[T]) {
		item.Destroy()
	})
}
