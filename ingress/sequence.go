package ingress

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/internal"
	"github.com/FerroO2000/ringq/internal/config"
	"github.com/FerroO2000/ringq/internal/message"
	"go.opentelemetry.io/otel/attribute"
)

//////////////
//  CONFIG  //
//////////////

// Default values for the Sequence stage configuration.
const (
	DefaultSequenceConfigCount = 10_000
)

// SequenceConfig structs contains the configuration for the Sequence stage.
type SequenceConfig struct {
	// Start is the first emitted value.
	//
	// Default: 0
	Start int

	// Count is the number of emitted values.
	//
	// Default: 10000
	Count int
}

// DefaultSequenceConfig returns the default configuration for the Sequence stage.
func DefaultSequenceConfig() *SequenceConfig {
	return &SequenceConfig{
		Start: 0,
		Count: DefaultSequenceConfigCount,
	}
}

// Validate checks the configuration.
func (c *SequenceConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotNegative(ac, "Count", &c.Count, DefaultSequenceConfigCount)
}

///////////////
//  MESSAGE  //
///////////////

var _ msgEnv = (*SequenceMessage)(nil)

// SequenceMessage is the message returned by the Sequence stage.
type SequenceMessage struct {
	Value int
}

func newSequenceMessage(value int) *SequenceMessage {
	return &SequenceMessage{
		Value: value,
	}
}

// Destroy cleans up the message.
func (sm *SequenceMessage) Destroy() {}

//////////////
//  SOURCE  //
//////////////

var _ source[*SequenceMessage] = (*sequenceSource)(nil)

type sequenceSource struct {
	tel *internal.Telemetry

	cfg *SequenceConfig

	done chan struct{}

	// Metrics
	emittedMessages atomic.Int64
}

func newSequenceSource(cfg *SequenceConfig) *sequenceSource {
	return &sequenceSource{
		cfg: cfg,

		done: make(chan struct{}),
	}
}

func (ss *sequenceSource) setTelemetry(tel *internal.Telemetry) {
	ss.tel = tel
}

func (ss *sequenceSource) initMetrics() {
	ss.tel.NewCounter("emitted_messages", func() int64 { return ss.emittedMessages.Load() })
}

func (ss *sequenceSource) run(ctx context.Context, outConn msgConn[*SequenceMessage]) {
	defer close(ss.done)

	// The sequence is over, the reader is notified through the close
	defer outConn.Close()

	for idx := range ss.cfg.Count {
		seqNum := uint64(idx)
		msgOut := ss.newMessage(ctx, ss.cfg.Start+idx, seqNum)

		if err := outConn.Write(ctx, msgOut); err != nil {
			// The message was not handed over, so it is still owned here
			msgOut.Destroy()

			if errors.Is(err, connector.ErrClosed) {
				ss.tel.LogInfo("output connector is closed, stopping")
			} else if !errors.Is(err, context.Canceled) {
				ss.tel.LogError("failed to write message to output connector", err)
			}

			return
		}

		ss.emittedMessages.Add(1)
	}

	ss.tel.LogInfo("sequence completed", "count", ss.cfg.Count)
}

func (ss *sequenceSource) newMessage(ctx context.Context, value int, seqNum uint64) *msg[*SequenceMessage] {
	_, span := ss.tel.NewTrace(ctx, "emit sequence message")
	defer span.End()

	msg := message.NewMessage(newSequenceMessage(value))

	now := time.Now()
	msg.SetReceiveTime(now)
	msg.SetTimestamp(now)
	msg.SetSequenceNumber(seqNum)

	span.SetAttributes(attribute.Int("value", value))
	msg.SaveSpan(span)

	return msg
}

/////////////
//  STAGE  //
/////////////

// SequenceStage is an ingress stage that emits a finite sequence of
// increasing integers and then closes its output connector.
type SequenceStage struct {
	*stage[*SequenceMessage, *SequenceConfig]

	source *sequenceSource
}

// NewSequenceStage returns a new Sequence stage.
func NewSequenceStage(outConnector msgConn[*SequenceMessage], cfg *SequenceConfig) *SequenceStage {
	source := newSequenceSource(cfg)

	return &SequenceStage{
		stage: newStage[*SequenceMessage]("sequence", source, outConnector, cfg),

		source: source,
	}
}

// Init initializes the stage.
func (s *SequenceStage) Init(ctx context.Context) error {
	if err := s.stage.Init(ctx); err != nil {
		return err
	}

	s.source.initMetrics()

	return nil
}

// Done returns a channel that is closed when the stage stops emitting.
func (s *SequenceStage) Done() <-chan struct{} {
	return s.source.done
}

// Emitted returns the number of messages handed over to the output connector.
func (s *SequenceStage) Emitted() int64 {
	return s.source.emittedMessages.Load()
}
