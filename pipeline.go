// Package ringq provides the main entrypoint for the ringq library:
// a pipeline of stages linked by lock-free single producer/single consumer
// ring queues.
package ringq

import (
	"context"
	"sync"

	"github.com/FerroO2000/ringq/connector"
	"github.com/FerroO2000/ringq/internal/rb"
)

// Queue is a bounded lock-free single producer/single consumer ring queue.
type Queue[T any] = rb.Queue[T]

// ErrInvalidCapacity is returned when a queue is created
// with a capacity lower than 2 or greater than 2^32.
var ErrInvalidCapacity = rb.ErrInvalidCapacity

// NewQueue returns a new ring queue with the given capacity.
// The queue holds at most capacity-1 items.
func NewQueue[T any](capacity uint64) (*Queue[T], error) {
	return rb.New[T](capacity)
}

// Stage defines the interface for a generic stage.
type Stage interface {
	// Init initializes the stage.
	Init(ctx context.Context) error
	// Run runs the stage.
	Run(ctx context.Context)
	// Close closes (forever) the stage.
	Close()
}

// Connector represents the interface for a generic connector
// to be used for connecting the stages.
type Connector[T any] = connector.Connector[T]

// Pipeline represents a generic pipeline.
// It is the entrypoint for the stages.
type Pipeline struct {
	stages []Stage

	wg        *sync.WaitGroup
	done      chan struct{}
	isRunning bool
}

// NewPipeline returns a new pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		stages: []Stage{},

		wg:   &sync.WaitGroup{},
		done: make(chan struct{}),
	}
}

// AddStage adds a stage to the pipeline.
// The order of the stages is important.
func (p *Pipeline) AddStage(stage Stage) {
	if p.isRunning {
		return
	}

	p.stages = append(p.stages, stage)
}

// Init initializes all the stages.
func (p *Pipeline) Init(ctx context.Context) error {
	for _, stage := range p.stages {
		if err := stage.Init(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Run runs all the stages.
// It spawns a goroutine for each stage and returns immediately.
func (p *Pipeline) Run(ctx context.Context) {
	if p.isRunning {
		return
	}
	p.isRunning = true

	p.wg.Add(len(p.stages))

	for _, stage := range p.stages {
		go func() {
			defer p.wg.Done()
			stage.Run(ctx)
		}()
	}

	go func() {
		p.wg.Wait()
		close(p.done)
	}()
}

// Done returns a channel that is closed when every stage has returned.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Close closes all the stages.
// It blocks until all the stages have returned, so the context
// passed to Run should be done or the stages should have run out of input.
func (p *Pipeline) Close() {
	for _, stage := range p.stages {
		stage.Close()
	}

	if p.isRunning {
		<-p.done
	}
}
