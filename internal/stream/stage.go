package stream

import (
	"context"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// Stage is one node of a pipeline. Run consumes in until it is closed and
// sends outputs to out, preserving FIFO order for a given input file's
// descendants. A stage never closes out; the composing chain (or the
// pipeline driver) does.
type Stage interface {
	Name() string
	Run(ctx context.Context, in <-chan File, out chan<- File) error
}

// Transform is a per-file transform producing zero or more output files.
// This is the unit per-type optimizers are written as.
type Transform func(ctx context.Context, f File) ([]File, error)

type funcStage struct {
	name string
	fn   TransformFunc
}

// FromFunc wraps sequential transform logic into a Stage. The stage runs
// the function through an Adapter, so it participates in the write/close
// backpressure protocol like every other node.
func FromFunc(name string, fn TransformFunc) Stage {
	return &funcStage{name: name, fn: fn}
}

func (s *funcStage) Name() string { return s.name }

func (s *funcStage) Run(ctx context.Context, in <-chan File, out chan<- File) error {
	a := NewAdapter(s.name, s.fn, out)

loop:
	for {
		select {
		case f, ok := <-in:
			if !ok {
				break loop
			}
			if err := a.Write(ctx, f); err != nil {
				// Let the transform observe end of input so its goroutine
				// does not outlive the stage.
				_ = a.Close(ctx)
				return err
			}
		case <-ctx.Done():
			_ = a.Close(ctx)
			return ctx.Err()
		}
	}

	if err := a.Close(ctx); err != nil {
		return err
	}
	return a.Wait(ctx)
}

// Map lifts a per-file Transform into a Stage. Outputs are emitted in input
// order; errors are classified as stage errors carrying the file path.
func Map(name string, t Transform) Stage {
	return FromFunc(name, func(ctx context.Context, in <-chan File, emit func(File) error) error {
		for f := range in {
			outs, err := t(ctx, f)
			if err != nil {
				return stageFailure(err, name, f.Path)
			}
			for _, o := range outs {
				if err := emit(o); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Conditional routes files matching pred through the transform and passes
// all other files along untouched, in their original position. Because
// routing happens per file in a single goroutine, the relative order of
// bypassed and transformed files is exactly the input order.
func Conditional(name string, pred func(File) bool, t Transform) Stage {
	return FromFunc(name, func(ctx context.Context, in <-chan File, emit func(File) error) error {
		for f := range in {
			if !pred(f) {
				if err := emit(f); err != nil {
					return err
				}
				continue
			}
			outs, err := t(ctx, f)
			if err != nil {
				return stageFailure(err, name, f.Path)
			}
			for _, o := range outs {
				if err := emit(o); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Passthrough returns an identity stage.
func Passthrough(name string) Stage {
	return FromFunc(name, func(ctx context.Context, in <-chan File, emit func(File) error) error {
		for f := range in {
			if err := emit(f); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExtPredicate matches files whose extension is one of exts (".html", ".css", ...).
func ExtPredicate(exts ...string) func(File) bool {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[e] = struct{}{}
	}
	return func(f File) bool {
		_, ok := set[f.Ext()]
		return ok
	}
}

func stageFailure(err error, stage, path string) error {
	if classified, ok := ferrors.AsClassified(err); ok {
		return classified.WithContext("stage", stage).WithContext("path", path)
	}
	return ferrors.WrapError(err, ferrors.CategoryStage, "transform failed").
		WithContext("stage", stage).
		WithContext("path", path).
		Build()
}
