package egress

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FerroO2000/ringq/internal/config"
)

//////////////
//  CONFIG  //
//////////////

// WriterConfig structs contains the configuration for the Writer stage.
type WriterConfig struct {
	// Writer is the destination of the lines.
	//
	// Default: os.Stdout
	Writer io.Writer
}

// DefaultWriterConfig returns the default configuration for the Writer stage.
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Writer: os.Stdout,
	}
}

// Validate checks the configuration.
func (c *WriterConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotNil(ac, "Writer", &c.Writer, io.Writer(os.Stdout))
}

/////////////
//  STAGE  //
/////////////

// FormatFunc formats the envelope of a message as a line.
type FormatFunc[T msgEnv] func(envelope T) string

// WriterStage is an egress stage that writes one line for every
// incoming message to a writer (the console, by default).
type WriterStage[T msgEnv] struct {
	*stageBase[T, *WriterConfig]

	format FormatFunc[T]
	buf    *bufio.Writer
}

// NewWriterStage returns a new writer egress stage.
func NewWriterStage[T msgEnv](inputConnector msgConn[T], format FormatFunc[T], cfg *WriterConfig) *WriterStage[T] {
	return &WriterStage[T]{
		stageBase: newStageBase("writer", inputConnector, cfg),

		format: format,
	}
}

// Init initializes the writer stage.
func (ws *WriterStage[T]) Init(_ context.Context) error {
	ws.stageBase.init()

	if ws.format == nil {
		return errors.New("no format function specified")
	}

	ws.buf = bufio.NewWriter(ws.cfg.Writer)

	return nil
}

// Run runs the writer stage.
func (ws *WriterStage[T]) Run(ctx context.Context) {
	defer close(ws.done)

	ws.stageBase.run(ctx, ws)

	if err := ws.buf.Flush(); err != nil {
		ws.tel.LogError("failed to flush writer", err)
	}
}

func (ws *WriterStage[T]) deliver(_ context.Context, msgIn *msg[T]) error {
	_, err := fmt.Fprintln(ws.buf, ws.format(msgIn.GetEnvelope()))
	return err
}

// Close closes the writer stage.
func (ws *WriterStage[T]) Close() {
	ws.stageBase.close()
}
