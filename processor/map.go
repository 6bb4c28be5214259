package processor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/internal"
	"github.com/FerroO2000/ringq/internal/message"
	"go.opentelemetry.io/otel/metric"
)

// MapFunc maps the envelope of an input message to the envelope
// of the output message. Returning an error drops the message.
type MapFunc[In, Out msgEnv] func(ctx context.Context, in In) (Out, error)

// MapStage is a processor stage that applies a function
// to every message read from the input connector.
type MapStage[In, Out msgEnv] struct {
	tel *internal.Telemetry

	fn MapFunc[In, Out]

	inputConnector  msgConn[In]
	outputConnector msgConn[Out]

	traceString string

	// Metrics
	processedMessages atomic.Int64
	droppedMessages   atomic.Int64
	inFlightMessages  atomic.Int64
	processingTime    *internal.Histogram
}

// NewMapStage returns a new map processor stage.
// The name is used to identify the stage in the telemetry.
func NewMapStage[In, Out msgEnv](name string, fn MapFunc[In, Out], inputConnector msgConn[In], outputConnector msgConn[Out]) *MapStage[In, Out] {
	return &MapStage[In, Out]{
		tel: internal.NewTelemetry("processor", name),

		fn: fn,

		inputConnector:  inputConnector,
		outputConnector: outputConnector,

		traceString: "map " + name + " message",
	}
}

// Init initializes the stage.
func (ms *MapStage[In, Out]) Init(_ context.Context) error {
	ms.tel.LogInfo("initializing")

	if ms.fn == nil {
		return errors.New("no map function specified")
	}

	ms.tel.NewCounter("processed_messages", func() int64 { return ms.processedMessages.Load() })
	ms.tel.NewCounter("dropped_messages", func() int64 { return ms.droppedMessages.Load() })
	ms.tel.NewUpDownCounter("in_flight_messages", func() int64 { return ms.inFlightMessages.Load() })
	ms.processingTime = ms.tel.NewHistogram("message_processing_time", metric.WithUnit("us"))

	return nil
}

// Run runs the stage until the input connector is closed
// or the context is done. It then closes the output connector.
func (ms *MapStage[In, Out]) Run(ctx context.Context) {
	ms.tel.LogInfo("running")

	defer ms.outputConnector.Close()

	for {
		msgIn, err := ms.inputConnector.Read(ctx)
		if err != nil {
			// Check if the input connector is closed, if so stop
			if errors.Is(err, connector.ErrClosed) {
				ms.tel.LogInfo("input connector is closed, stopping")
			}

			return
		}

		msgOut, ok := ms.process(ctx, msgIn)
		if !ok {
			continue
		}

		err = ms.outputConnector.Write(ctx, msgOut)
		ms.inFlightMessages.Add(-1)

		if err != nil {
			msgOut.Destroy()

			if errors.Is(err, connector.ErrClosed) {
				ms.tel.LogInfo("output connector is closed, stopping")
			} else if !errors.Is(err, context.Canceled) {
				ms.tel.LogError("failed to write into output connector", err)
			}

			return
		}
	}
}

// process maps the input message. When it returns true the output
// message counts as in flight until it is written.
func (ms *MapStage[In, Out]) process(ctx context.Context, msgIn *msg[In]) (*msg[Out], bool) {
	defer msgIn.Destroy()

	ms.processedMessages.Add(1)
	ms.inFlightMessages.Add(1)

	// Extract the span context from the input message
	ctx, span := ms.tel.NewTrace(msgIn.LoadSpanContext(ctx), ms.traceString)
	defer span.End()

	out, err := ms.fn(ctx, msgIn.GetEnvelope())
	if err != nil {
		ms.tel.LogError("failed to process message", err)
		ms.droppedMessages.Add(1)
		ms.inFlightMessages.Add(-1)
		return nil, false
	}

	msgOut := message.NewMessage(out)
	msgOut.SetReceiveTime(msgIn.GetReceiveTime())
	msgOut.SetTimestamp(msgIn.GetTimestamp())
	msgOut.SetSequenceNumber(msgIn.GetSequenceNumber())
	msgOut.SaveSpan(span)

	ms.processingTime.Record(ctx, time.Since(msgIn.GetReceiveTime()).Microseconds())

	return msgOut, true
}

// Close closes the stage.
func (ms *MapStage[In, Out]) Close() {
	ms.tel.LogInfo("closing")

	ms.outputConnector.Close()

	ms.tel.UnregisterMetrics()
}
