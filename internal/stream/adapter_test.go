package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

func identityTransform(_ context.Context, in <-chan File, emit func(File) error) error {
	for f := range in {
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}

func namedFiles(names ...string) []File {
	files := make([]File, 0, len(names))
	for _, n := range names {
		files = append(files, File{Path: n, Data: []byte(n)})
	}
	return files
}

func collect(out <-chan File) []string {
	var paths []string
	for f := range out {
		paths = append(paths, f.Path)
	}
	return paths
}

func TestAdapter_IdentityPreservesOrder(t *testing.T) {
	ctx := context.Background()
	out := make(chan File, 64)

	// The transform appends a sentinel when it observes end of input, so the
	// output order proves close was seen only after all writes were pulled.
	a := NewAdapter("identity", func(ctx context.Context, in <-chan File, emit func(File) error) error {
		for f := range in {
			if err := emit(f); err != nil {
				return err
			}
		}
		return emit(File{Path: "<eof>"})
	}, out)

	inputs := namedFiles("a.html", "b.css", "c.js", "d.png", "e.json")
	for _, f := range inputs {
		require.NoError(t, a.Write(ctx, f))
	}
	require.NoError(t, a.Close(ctx))
	require.NoError(t, a.Wait(ctx))
	close(out)

	assert.Equal(t, []string{"a.html", "b.css", "c.js", "d.png", "e.json", "<eof>"}, collect(out))
}

func TestAdapter_WriteBlocksUntilPulled(t *testing.T) {
	ctx := context.Background()
	out := make(chan File, 1)

	release := make(chan struct{})
	a := NewAdapter("slow", func(ctx context.Context, in <-chan File, emit func(File) error) error {
		<-release
		return identityTransform(ctx, in, emit)
	}, out)

	first := make(chan error, 1)
	go func() { first <- a.Write(ctx, File{Path: "a.html"}) }()

	// The transform has not pulled anything yet, so the write must stay pending.
	select {
	case err := <-first:
		t.Fatalf("write resolved before the consumer pulled: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-first)
	require.NoError(t, a.Close(ctx))
	require.NoError(t, a.Wait(ctx))
}

func TestAdapter_WriteAfterCloseIsProtocolError(t *testing.T) {
	ctx := context.Background()
	out := make(chan File, 4)
	a := NewAdapter("identity", identityTransform, out)

	require.NoError(t, a.Write(ctx, File{Path: "a.html"}))
	require.NoError(t, a.Close(ctx))

	err := a.Write(ctx, File{Path: "b.css"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryProtocol))
}

func TestAdapter_DoubleCloseIsProtocolError(t *testing.T) {
	ctx := context.Background()
	out := make(chan File, 4)
	a := NewAdapter("identity", identityTransform, out)

	require.NoError(t, a.Close(ctx))

	err := a.Close(ctx)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryProtocol))
}

func TestAdapter_CloseWithoutWritesRunsTransformOnce(t *testing.T) {
	ctx := context.Background()
	out := make(chan File, 4)

	runs := 0
	a := NewAdapter("counting", func(ctx context.Context, in <-chan File, emit func(File) error) error {
		runs++
		return identityTransform(ctx, in, emit)
	}, out)

	require.NoError(t, a.Close(ctx))
	require.NoError(t, a.Wait(ctx))
	assert.Equal(t, 1, runs)
}

func TestAdapter_TransformErrorSurfacesFromWait(t *testing.T) {
	ctx := context.Background()
	out := make(chan File, 4)

	boom := fmt.Errorf("malformed input")
	a := NewAdapter("failing", func(ctx context.Context, in <-chan File, emit func(File) error) error {
		for range in {
			return boom
		}
		return nil
	}, out)

	require.NoError(t, a.Write(ctx, File{Path: "a.html"}))
	require.NoError(t, a.Close(ctx))
	assert.ErrorIs(t, a.Wait(ctx), boom)
}

func TestAdapter_TrailingOutputsFlushedBeforeWaitReturns(t *testing.T) {
	ctx := context.Background()
	out := make(chan File, 64)

	a := NewAdapter("expander", func(ctx context.Context, in <-chan File, emit func(File) error) error {
		for range in {
		}
		// Emitted after end of input: Wait must still cover these.
		for i := range 3 {
			if err := emit(File{Path: fmt.Sprintf("trailing-%d.js", i)}); err != nil {
				return err
			}
		}
		return nil
	}, out)

	require.NoError(t, a.Write(ctx, File{Path: "seed.html"}))
	require.NoError(t, a.Close(ctx))
	require.NoError(t, a.Wait(ctx))
	close(out)

	assert.Equal(t, []string{"trailing-0.js", "trailing-1.js", "trailing-2.js"}, collect(out))
}
