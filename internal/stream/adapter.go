package stream

import (
	"context"
	"sync"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// TransformFunc is the author-facing shape of a stage: plain sequential
// logic that consumes the input channel to exhaustion and emits outputs as
// they are produced. Returning a non-nil error fails the stage.
type TransformFunc func(ctx context.Context, in <-chan File, emit func(File) error) error

// Adapter bridges push-style production (Write/Close) to a TransformFunc.
//
// The input side is a single unbuffered channel, so Write blocks until the
// transform actually receives the file: a producer that writes faster than
// the transform reads stays blocked, which is the backpressure signal.
// Close is observed by the transform only after every previously written
// file has been received.
//
// The transform is started lazily on the first Write (or on Close, so an
// empty input still runs it exactly once). Emitted outputs are forwarded
// downstream synchronously, so once the transform has returned every output
// has already been accepted downstream.
type Adapter struct {
	name string
	fn   TransformFunc
	out  chan<- File

	mu      sync.Mutex
	started bool
	closed  bool

	in   chan File
	done chan struct{}
	err  error
}

// NewAdapter creates an adapter forwarding transform outputs to out.
// The adapter never closes out.
func NewAdapter(name string, fn TransformFunc, out chan<- File) *Adapter {
	return &Adapter{
		name: name,
		fn:   fn,
		out:  out,
		in:   make(chan File),
		done: make(chan struct{}),
	}
}

// Name returns the stage name the adapter was created with.
func (a *Adapter) Name() string { return a.name }

// start launches the transform goroutine. Callers must hold a.mu.
func (a *Adapter) start(ctx context.Context) {
	a.started = true
	go func() {
		err := a.fn(ctx, a.in, func(f File) error {
			select {
			case a.out <- f:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		a.mu.Lock()
		a.err = err
		a.mu.Unlock()
		close(a.done)
	}()
}

// Write hands one file to the transform. It blocks until the transform
// receives the file, the transform finishes, or ctx is cancelled. Writing
// after Close is a protocol error.
func (a *Adapter) Write(ctx context.Context, f File) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ferrors.ProtocolError("write after close").WithContext("stage", a.name).Build()
	}
	if !a.started {
		a.start(ctx)
	}
	a.mu.Unlock()

	select {
	case a.in <- f:
		return nil
	case <-a.done:
		// The transform returned without consuming this write.
		if err := a.transformErr(); err != nil {
			return err
		}
		return ferrors.ProtocolError("transform finished before input was closed").
			WithContext("stage", a.name).Build()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals end of input. The transform observes it only after all
// previously written files have been received. A second Close is a protocol
// error. Closing an adapter that never received a write still runs the
// transform once, over an empty input.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ferrors.ProtocolError("close after close").WithContext("stage", a.name).Build()
	}
	a.closed = true
	if !a.started {
		a.start(ctx)
	}
	a.mu.Unlock()

	close(a.in)
	return nil
}

// Wait blocks until the transform has returned and every emitted output has
// been forwarded downstream, then reports the transform's error. Wait must
// be called after Close.
func (a *Adapter) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.transformErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Adapter) transformErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}
