package message

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Message is the base struct for all messages.
// It is the data structure moved between stages through the ring queues.
//
// A message is owned by exactly one side at a time: the stage that created
// it, the queue, or the stage that popped it. The owner at the end of the
// message's life calls Destroy.
type Message[T Envelope] struct {
	receiveTime    time.Time
	timestamp      time.Time
	sequenceNumber uint64
	span           trace.SpanContext

	destroyed atomic.Bool

	envelope T
}

// NewMessage creates a new message.
func NewMessage[T Envelope](envelope T) *Message[T] {
	return &Message[T]{
		envelope: envelope,
	}
}

// SetReceiveTime sets the time the message was received.
func (m *Message[T]) SetReceiveTime(receiveTime time.Time) {
	m.receiveTime = receiveTime
}

// GetReceiveTime returns the time the message was received.
func (m *Message[T]) GetReceiveTime() time.Time {
	return m.receiveTime
}

// SetTimestamp sets the timestamp of the message.
func (m *Message[T]) SetTimestamp(timestamp time.Time) {
	m.timestamp = timestamp
}

// GetTimestamp returns the timestamp of the message.
// It may be different from the receive time.
func (m *Message[T]) GetTimestamp() time.Time {
	return m.timestamp
}

// SetSequenceNumber sets the sequence number of the message.
func (m *Message[T]) SetSequenceNumber(sequenceNumber uint64) {
	m.sequenceNumber = sequenceNumber
}

// GetSequenceNumber returns the sequence number of the message.
func (m *Message[T]) GetSequenceNumber() uint64 {
	return m.sequenceNumber
}

// SaveSpan saves the trace span for the message.
func (m *Message[T]) SaveSpan(span trace.Span) {
	m.span = span.SpanContext()
}

// LoadSpanContext loads the trace of the message
// into the provided context.
func (m *Message[T]) LoadSpanContext(ctx context.Context) context.Context {
	return trace.ContextWithSpanContext(ctx, m.span)
}

// Destroy cleans up the message by calling the Destroy method of the envelope.
// Only the first call has an effect. It reports whether this call destroyed
// the message.
func (m *Message[T]) Destroy() bool {
	if !m.destroyed.CompareAndSwap(false, true) {
		return false
	}

	m.envelope.Destroy()

	return true
}

// IsDestroyed states whether the message was destroyed.
func (m *Message[T]) IsDestroyed() bool {
	return m.destroyed.Load()
}

// GetEnvelope returns the envelope of the message,
// i.e. the stage's specific data.
func (m *Message[T]) GetEnvelope() T {
	return m.envelope
}
