package egress

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/internal"
	"github.com/FerroO2000/ringq/internal/config"
	"go.opentelemetry.io/otel/metric"
)

type deliverer[In msgEnv] interface {
	deliver(ctx context.Context, msgIn *msg[In]) error
}

type stageBase[In msgEnv, Cfg config.Config] struct {
	tel *internal.Telemetry

	cfg Cfg

	inputConnector msgConn[In]

	done chan struct{}

	// Metrics
	deliveredMessages atomic.Int64
	deliveringErrors  atomic.Int64
	totProcessingTime *internal.Histogram
}

func newStageBase[In msgEnv, Cfg config.Config](name string, inConn msgConn[In], cfg Cfg) *stageBase[In, Cfg] {
	return &stageBase[In, Cfg]{
		tel: internal.NewTelemetry("egress", name),

		cfg: cfg,

		inputConnector: inConn,

		done: make(chan struct{}),
	}
}

func (s *stageBase[In, Cfg]) init() {
	s.tel.LogInfo("initializing")

	validator := config.NewValidator(s.tel)
	validator.Validate(s.cfg)

	s.tel.NewCounter("delivered_messages", func() int64 { return s.deliveredMessages.Load() })
	s.tel.NewCounter("delivering_errors", func() int64 { return s.deliveringErrors.Load() })
	s.totProcessingTime = s.tel.NewHistogram("total_message_processing_time", metric.WithUnit("us"))
}

// run reads from the input connector until it is closed and drained
// or the context is done, handing every message to the deliverer.
func (s *stageBase[In, Cfg]) run(ctx context.Context, d deliverer[In]) {
	s.tel.LogInfo("running")

	for {
		msgIn, err := s.inputConnector.Read(ctx)
		if err != nil {
			// Check if the input connector is closed, if so stop
			if errors.Is(err, connector.ErrClosed) {
				s.tel.LogInfo("input connector is closed, stopping")
			}

			return
		}

		s.deliver(ctx, d, msgIn)
	}
}

func (s *stageBase[In, Cfg]) deliver(ctx context.Context, d deliverer[In], msgIn *msg[In]) {
	defer msgIn.Destroy()

	// Extract the span context from the input message
	ctx = msgIn.LoadSpanContext(ctx)

	if err := d.deliver(ctx, msgIn); err != nil {
		s.tel.LogError("failed to deliver message", err)
		s.deliveringErrors.Add(1)
		return
	}

	s.deliveredMessages.Add(1)
	s.totProcessingTime.Record(ctx, time.Since(msgIn.GetReceiveTime()).Microseconds())
}

func (s *stageBase[In, Cfg]) close() {
	s.tel.LogInfo("closing")

	s.tel.UnregisterMetrics()
}

// Done returns a channel that is closed when the stage stops reading.
func (s *stageBase[In, Cfg]) Done() <-chan struct{} {
	return s.done
}

// Delivered returns the number of delivered messages.
func (s *stageBase[In, Cfg]) Delivered() int64 {
	return s.deliveredMessages.Load()
}
