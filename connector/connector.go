// Package connector contains the connectors used to link the stages.
// A connector has exactly one writer (the upstream stage)
// and exactly one reader (the downstream stage).
package connector

import (
	"context"
	"errors"
)

// ErrClosed is returned when the connector is closed.
var ErrClosed = errors.New("connector: connector is closed")

// Connector is the interface for a generic connector.
type Connector[T any] interface {
	// Write writes an item, waiting while the connector is full.
	// It must be called only by the writer.
	Write(ctx context.Context, item T) error

	// Read reads an item, waiting while the connector is empty.
	// It must be called only by the reader.
	Read(ctx context.Context) (T, error)

	// Close closes the connector. The items already written
	// can still be read.
	Close()
}
