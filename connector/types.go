package connector

import (
	"github.com/FerroO2000/ringq/internal/message"
)

type msgEnv = message.Envelope

type msg[T msgEnv] = message.Message[T]
