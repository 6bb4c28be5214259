// Package processor contains the processor stages.
// All the processor stages take a message from a previous stage,
// through an input connector, and produce a message for the next stage,
// through an output connector. A processor is the consumer of its input
// connector and the producer of its output connector.
package processor

import (
	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/internal/message"
)

type msgEnv = message.Envelope

type msg[T msgEnv] = message.Message[T]

type msgConn[T msgEnv] = connector.Connector[*msg[T]]
