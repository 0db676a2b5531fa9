package stream

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// DefaultBuffer is the capacity of the channels linking chained stages and
// the per-branch buffer of a fork. Buffers are deliberately small: an
// overwhelmed sink must block its way back up to the producers.
const DefaultBuffer = 16

// Chain composes an ordered list of stages into one pipeline node. A Chain
// is itself a Stage, so chains nest.
type Chain struct {
	name   string
	stages []Stage
}

// NewChain links stage i's output to stage i+1's input. An empty stage list
// is a construction-time validation error.
func NewChain(name string, stages ...Stage) (*Chain, error) {
	if len(stages) == 0 {
		return nil, ferrors.ValidationError("chain requires at least one stage").
			WithContext("chain", name).Build()
	}
	return &Chain{name: name, stages: stages}, nil
}

func (c *Chain) Name() string { return c.name }

// Run starts every stage concurrently, linked by bounded channels, and
// waits for all of them. The first stage error is returned; intermediate
// channels are closed as their producing stage finishes so downstream
// stages always observe end of input.
func (c *Chain) Run(ctx context.Context, in <-chan File, out chan<- File) error {
	g, ctx := errgroup.WithContext(ctx)

	prev := in
	for i, st := range c.stages {
		last := i == len(c.stages)-1

		var next chan File
		stageOut := out
		if !last {
			next = make(chan File, DefaultBuffer)
			stageOut = next
		}

		stage := st
		stageIn := prev
		g.Go(func() error {
			err := stage.Run(ctx, stageIn, stageOut)
			if next != nil {
				close(next)
			}
			if err != nil {
				return chainFailure(err, stage.Name())
			}
			return nil
		})

		prev = next
	}

	return g.Wait()
}

// chainFailure classifies stage errors that are not already classified.
// Context cancellation and classified errors pass through untouched.
func chainFailure(err error, stage string) error {
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return ferrors.WrapError(err, ferrors.CategoryStage, "stage failed").
		WithContext("stage", stage).Build()
}
