package ringq

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/egress"
	"github.com/FerroO2000/ringq/ingress"
	"github.com/FerroO2000/ringq/internal/retry"
	"github.com/FerroO2000/ringq/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type squareMessage struct {
	value int
}

func (sm *squareMessage) Destroy() {}

func Test_NewQueue(t *testing.T) {
	assert := assert.New(t)

	_, err := NewQueue[int](1)
	assert.ErrorIs(err, ErrInvalidCapacity)

	q, err := NewQueue[int](100)
	assert.NoError(err)
	assert.Equal(uint64(100), q.Cap())
}

func Test_Pipeline(t *testing.T) {
	defer goleak.VerifyNone(t)

	suite := []retry.Kind{retry.KindSpin, retry.KindYield, retry.KindBackoff}

	for _, kind := range suite {
		t.Run(kind.String(), func(t *testing.T) {
			testPipeline(t, kind)
		})
	}
}

func testPipeline(t *testing.T, kind retry.Kind) {
	require := require.New(t)

	const items = 10_000

	connCfg := func(name string) *connector.RingQueueConfig {
		cfg := connector.DefaultRingQueueConfig(100)
		cfg.Name = name
		cfg.WriteRetry.Kind = kind
		cfg.ReadRetry.Kind = kind
		cfg.WriteRetry.MaxInterval = 50 * time.Microsecond
		cfg.ReadRetry.MaxInterval = 50 * time.Microsecond
		return cfg
	}

	seqToSquare := connector.NewRingQueue[*ingress.SequenceMessage](connCfg("sequence_to_square"))
	squareToWriter := connector.NewRingQueue[*squareMessage](connCfg("square_to_writer"))

	seqCfg := ingress.DefaultSequenceConfig()
	seqCfg.Count = items
	seqStage := ingress.NewSequenceStage(seqToSquare, seqCfg)

	square := func(_ context.Context, in *ingress.SequenceMessage) (*squareMessage, error) {
		return &squareMessage{value: in.Value * in.Value}, nil
	}
	squareStage := processor.NewMapStage("square", square, seqToSquare, squareToWriter)

	out := &bytes.Buffer{}
	writerCfg := egress.DefaultWriterConfig()
	writerCfg.Writer = out
	format := func(sm *squareMessage) string { return strconv.Itoa(sm.value) }
	writerStage := egress.NewWriterStage(squareToWriter, format, writerCfg)

	pipeline := NewPipeline()
	pipeline.AddStage(seqStage)
	pipeline.AddStage(squareStage)
	pipeline.AddStage(writerStage)

	require.NoError(pipeline.Init(t.Context()))

	pipeline.Run(t.Context())

	select {
	case <-pipeline.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("pipeline did not complete")
	}

	pipeline.Close()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(lines, items)
	for idx, line := range lines {
		require.Equal(strconv.Itoa(idx*idx), line)
	}

	require.Zero(connector.DestroyAll(seqToSquare))
	require.Zero(connector.DestroyAll(squareToWriter))
}

func Test_Pipeline_Close(t *testing.T) {
	defer goleak.VerifyNone(t)

	assert := assert.New(t)

	conn := connector.NewRingQueue[*ingress.SequenceMessage](connector.DefaultRingQueueConfig(16))

	seqCfg := ingress.DefaultSequenceConfig()
	seqCfg.Count = 1_000_000_000
	seqStage := ingress.NewSequenceStage(conn, seqCfg)
	sinkStage := egress.NewSinkStage[*ingress.SequenceMessage](conn)

	pipeline := NewPipeline()
	pipeline.AddStage(seqStage)
	pipeline.AddStage(sinkStage)

	assert.NoError(pipeline.Init(t.Context()))
	pipeline.Run(t.Context())

	time.Sleep(10 * time.Millisecond)

	// Closing the producer stage stops the whole pipeline
	pipeline.Close()

	// A write racing with the close may leave a message in the queue,
	// the teardown releases it
	drained := connector.DestroyAll(conn)
	assert.Equal(seqStage.Emitted(), sinkStage.Delivered()+int64(drained))
}
