package egress

import (
	"bytes"
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/internal/config"
	"github.com/FerroO2000/ringq/internal/message"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type testMsg struct {
	value int
	call  func()
}

func (m *testMsg) Destroy() {
	if m.call != nil {
		m.call()
	}
}

func Test_SinkStage(t *testing.T) {
	defer goleak.VerifyNone(t)

	assert := assert.New(t)

	msgCount := 32
	conn := connector.NewRingQueue[*testMsg](connector.DefaultRingQueueConfig(uint64(msgCount + 1)))

	destroyCount := 0
	call := func() {
		destroyCount++
	}

	for range msgCount {
		msg := message.NewMessage(&testMsg{
			call: call,
		})

		assert.NoError(conn.Write(t.Context(), msg))
	}
	conn.Close()

	stage := NewSinkStage[*testMsg](conn)
	assert.NoError(stage.Init(t.Context()))

	go stage.Run(t.Context())

	<-stage.Done()
	stage.Close()

	assert.Equal(msgCount, destroyCount)
	assert.Equal(int64(msgCount), stage.Delivered())
}

func Test_SinkStage_Cancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	assert := assert.New(t)

	conn := connector.NewRingQueue[*testMsg](connector.DefaultRingQueueConfig(8))

	stage := NewSinkStage[*testMsg](conn)
	assert.NoError(stage.Init(t.Context()))

	ctx, cancelCtx := context.WithCancel(t.Context())
	go stage.Run(ctx)

	cancelCtx()
	<-stage.Done()
	stage.Close()

	assert.Zero(stage.Delivered())
}

func Test_WriterStage(t *testing.T) {
	defer goleak.VerifyNone(t)

	assert := assert.New(t)

	const msgCount = 200

	conn := connector.NewRingQueue[*testMsg](connector.DefaultRingQueueConfig(10))

	out := &bytes.Buffer{}
	cfg := DefaultWriterConfig()
	cfg.Writer = out

	format := func(m *testMsg) string { return strconv.Itoa(m.value) }

	stage := NewWriterStage(conn, format, cfg)
	assert.NoError(stage.Init(t.Context()))

	go stage.Run(t.Context())

	for val := range msgCount {
		assert.NoError(conn.Write(t.Context(), message.NewMessage(&testMsg{value: val})))
	}
	conn.Close()

	<-stage.Done()
	stage.Close()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(lines, msgCount)
	for idx, line := range lines {
		assert.Equal(strconv.Itoa(idx), line)
	}
}

func Test_WriterStage_NoFormat(t *testing.T) {
	conn := connector.NewRingQueue[*testMsg](connector.DefaultRingQueueConfig(4))

	stage := NewWriterStage[*testMsg](conn, nil, &WriterConfig{})
	assert.Error(t, stage.Init(t.Context()))
}

func Test_WriterConfig_Validate(t *testing.T) {
	assert := assert.New(t)

	cfg := &WriterConfig{}

	ac := config.NewAnomalyCollector()
	cfg.Validate(ac)

	assert.Equal(io.Writer(os.Stdout), cfg.Writer)
	assert.Equal(1, ac.Len())

	for an := range ac.All() {
		assert.Equal("Writer", an.Field)
	}
}
