package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFork_BothBranchesSeeIdenticalSequence(t *testing.T) {
	ctx := context.Background()

	in := make(chan File)
	a, b := Fork(ctx, in, 4)

	go func() {
		defer close(in)
		for _, f := range namedFiles("a.html", "b.css", "c.js", "d.png", "e.json", "f.svg") {
			in <- f
		}
	}()

	type result struct {
		paths []string
	}
	fast := make(chan result, 1)
	slow := make(chan result, 1)

	go func() {
		var r result
		for f := range a {
			r.paths = append(r.paths, f.Path)
		}
		fast <- r
	}()
	go func() {
		var r result
		for f := range b {
			// Artificial consumer delay: order fidelity must not depend on
			// consumption rates.
			time.Sleep(10 * time.Millisecond)
			r.paths = append(r.paths, f.Path)
		}
		slow <- r
	}()

	want := []string{"a.html", "b.css", "c.js", "d.png", "e.json", "f.svg"}
	assert.Equal(t, want, (<-fast).paths)
	assert.Equal(t, want, (<-slow).paths)
}

func TestFork_BranchesGetIndependentCopies(t *testing.T) {
	ctx := context.Background()

	in := make(chan File, 1)
	in <- File{Path: "app.js", Data: []byte("original"), Assets: []string{"x"}}
	close(in)

	a, b := Fork(ctx, in, 2)

	fa := <-a
	fb := <-b

	// Mutating one branch's payload must not leak into the other.
	fa.Data[0] = 'X'
	fa.Assets[0] = "mutated"

	assert.Equal(t, "original", string(fb.Data))
	assert.Equal(t, []string{"x"}, fb.Assets)

	_, okA := <-a
	_, okB := <-b
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestFork_SlowBranchExertsBackpressureAtBufferLimit(t *testing.T) {
	ctx := context.Background()

	in := make(chan File)
	a, b := Fork(ctx, in, 2)

	// Drain branch b eagerly; leave branch a untouched.
	go func() {
		for range b {
		}
	}()

	sent := make(chan int, 1)
	go func() {
		n := 0
		for _, f := range namedFiles("1.js", "2.js", "3.js", "4.js", "5.js", "6.js", "7.js", "8.js") {
			select {
			case in <- f:
				n++
			case <-time.After(100 * time.Millisecond):
				sent <- n
				return
			}
		}
		sent <- n
	}()

	// With a buffer of 2 on the stalled branch the producer must stop after a
	// handful of files instead of running to completion.
	n := <-sent
	require.Less(t, n, 8)

	// Unblock and verify the remaining files still arrive in order.
	var got []string
	done := make(chan struct{})
	go func() {
		for f := range a {
			got = append(got, f.Path)
		}
		close(done)
	}()

	close(in)
	<-done
	assert.NotEmpty(t, got)
	assert.Equal(t, "1.js", got[0])
}
