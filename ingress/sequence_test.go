package ingress

import (
	"context"
	"testing"

	"github.com/FerroO2000/ringq/connector"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func Test_SequenceStage(t *testing.T) {
	defer goleak.VerifyNone(t)

	assert := assert.New(t)

	cfg := DefaultSequenceConfig()
	cfg.Start = 5
	cfg.Count = 1000

	conn := connector.NewRingQueue[*SequenceMessage](connector.DefaultRingQueueConfig(100))

	stage := NewSequenceStage(conn, cfg)
	assert.NoError(stage.Init(t.Context()))

	go stage.Run(t.Context())

	expected := cfg.Start
	for {
		msg, err := conn.Read(t.Context())
		if err != nil {
			assert.ErrorIs(err, connector.ErrClosed)
			break
		}

		assert.Equal(expected, msg.GetEnvelope().Value)
		assert.Equal(uint64(expected-cfg.Start), msg.GetSequenceNumber())
		assert.False(msg.GetReceiveTime().IsZero())

		msg.Destroy()
		expected++
	}

	<-stage.Done()
	stage.Close()

	assert.Equal(cfg.Start+cfg.Count, expected)
	assert.Equal(int64(cfg.Count), stage.Emitted())
}

func Test_SequenceStage_Cancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	assert := assert.New(t)

	conn := connector.NewRingQueue[*SequenceMessage](connector.DefaultRingQueueConfig(4))

	stage := NewSequenceStage(conn, DefaultSequenceConfig())
	assert.NoError(stage.Init(t.Context()))

	ctx, cancelCtx := context.WithCancel(t.Context())
	go stage.Run(ctx)

	// Nobody reads, so the producer stops on a full queue
	cancelCtx()
	<-stage.Done()
	stage.Close()

	assert.True(conn.IsClosed())
	assert.LessOrEqual(stage.Emitted(), int64(3))
	assert.Equal(int(stage.Emitted()), connector.DestroyAll(conn))
}

func Test_SequenceConfig_Validate(t *testing.T) {
	assert := assert.New(t)

	cfg := &SequenceConfig{Count: -1}

	conn := connector.NewRingQueue[*SequenceMessage](connector.DefaultRingQueueConfig(4))
	stage := NewSequenceStage(conn, cfg)
	assert.NoError(stage.Init(t.Context()))

	assert.Equal(DefaultSequenceConfigCount, cfg.Count)
}
