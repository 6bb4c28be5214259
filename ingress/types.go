// Package ingress contains the ingress stages.
// An ingress stage is the producer of its output connector.
package ingress

import (
	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/internal/message"
)

type msgEnv = message.Envelope

type msg[T msgEnv] = message.Message[T]

type msgConn[T msgEnv] = connector.Connector[*msg[T]]
