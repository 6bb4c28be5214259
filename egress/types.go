// Package egress contains the egress stages.
// An egress stage is the consumer of its input connector.
package egress

import (
	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/internal/message"
)

type msgEnv = message.Envelope

type msg[T msgEnv] = message.Message[T]

type msgConn[T msgEnv] = connector.Connector[*msg[T]]
