package stream

import "context"

// Fork tees one stream into two independent streams. Both receive every
// file from in, in the same order, as deep copies so neither branch can
// observe the other's mutations.
//
// Each branch has its own buffer of buf files (DefaultBuffer when buf <= 0),
// so a slow branch does not stall delivery of already-forwarded files to the
// fast one; once a branch's buffer fills, the fork blocks and backpressure
// reaches the shared upstream. Both outputs are closed when in is closed or
// ctx is cancelled.
//
// Consumers must drain their stream even after deciding to fail, otherwise
// the fork (and everything upstream) stays blocked.
func Fork(ctx context.Context, in <-chan File, buf int) (<-chan File, <-chan File) {
	if buf <= 0 {
		buf = DefaultBuffer
	}
	a := make(chan File, buf)
	b := make(chan File, buf)

	go func() {
		defer close(a)
		defer close(b)
		for {
			select {
			case f, ok := <-in:
				if !ok {
					return
				}
				select {
				case a <- f.Clone():
				case <-ctx.Done():
					return
				}
				select {
				case b <- f.Clone():
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return a, b
}
