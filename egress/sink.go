package egress

import (
	"context"

	"github.com/FerroO2000/ringq/internal/config"
)

//////////////
//  CONFIG  //
//////////////

type sinkConfig struct{}

func (c *sinkConfig) Validate(_ *config.AnomalyCollector) {}

/////////////
//  STAGE  //
/////////////

// SinkStage is an egress stage that simply destroys all incoming messages.
type SinkStage[T msgEnv] struct {
	*stageBase[T, *sinkConfig]
}

// NewSinkStage returns a new sink egress stage.
func NewSinkStage[T msgEnv](inputConnector msgConn[T]) *SinkStage[T] {
	return &SinkStage[T]{
		stageBase: newStageBase("sink", inputConnector, &sinkConfig{}),
	}
}

// Init initializes the sink stage.
func (ss *SinkStage[T]) Init(_ context.Context) error {
	ss.stageBase.init()
	return nil
}

// Run runs the sink stage.
func (ss *SinkStage[T]) Run(ctx context.Context) {
	defer close(ss.done)

	ss.stageBase.run(ctx, ss)
}

func (ss *SinkStage[T]) deliver(_ context.Context, _ *msg[T]) error {
	return nil
}

// Close closes the sink stage.
func (ss *SinkStage[T]) Close() {
	ss.stageBase.close()
}
