package stream

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// runStage drives a stage over the given inputs and returns its outputs.
func runStage(t *testing.T, st Stage, inputs []File) []File {
	t.Helper()
	ctx := context.Background()

	in := make(chan File, len(inputs))
	for _, f := range inputs {
		in <- f
	}
	close(in)

	out := make(chan File, len(inputs)*2+16)
	require.NoError(t, st.Run(ctx, in, out))
	close(out)

	var files []File
	for f := range out {
		files = append(files, f)
	}
	return files
}

func suffixTransform(suffix string) Transform {
	return func(_ context.Context, f File) ([]File, error) {
		f.Data = append([]byte{}, append(f.Data, []byte(suffix)...)...)
		return []File{f}, nil
	}
}

func TestNewChain_EmptyFails(t *testing.T) {
	_, err := NewChain("empty")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestConditional_RoutesByExtension(t *testing.T) {
	htmlStage := Conditional("html", ExtPredicate(".html"), suffixTransform("+html"))
	cssStage := Conditional("css", ExtPredicate(".css"), suffixTransform("+css"))
	jsStage := Conditional("js", ExtPredicate(".js"), suffixTransform("+js"))

	chain, err := NewChain("optimize", htmlStage, cssStage, jsStage)
	require.NoError(t, err)

	inputs := []File{
		{Path: "a.html", Data: []byte("a")},
		{Path: "b.css", Data: []byte("b")},
		{Path: "c.js", Data: []byte("c")},
	}
	outputs := runStage(t, chain, inputs)

	require.Len(t, outputs, 3)
	byPath := make(map[string]string, len(outputs))
	for _, f := range outputs {
		byPath[f.Path] = string(f.Data)
	}
	// Each file transformed exactly once, none duplicated or dropped.
	assert.Equal(t, map[string]string{
		"a.html": "a+html",
		"b.css":  "b+css",
		"c.js":   "c+js",
	}, byPath)
}

func TestConditional_PreservesRelativeOrder(t *testing.T) {
	st := Conditional("upper-css", ExtPredicate(".css"), func(_ context.Context, f File) ([]File, error) {
		f.Data = []byte(strings.ToUpper(string(f.Data)))
		return []File{f}, nil
	})

	inputs := namedFiles("1.html", "2.css", "3.js", "4.css", "5.html", "6.css")
	outputs := runStage(t, st, inputs)

	var order []string
	for _, f := range outputs {
		order = append(order, f.Path)
	}
	assert.Equal(t, []string{"1.html", "2.css", "3.js", "4.css", "5.html", "6.css"}, order)
}

func TestMap_ExpandsAndDrops(t *testing.T) {
	st := Map("split", func(_ context.Context, f File) ([]File, error) {
		if f.Ext() == ".drop" {
			return nil, nil
		}
		if f.Ext() == ".dup" {
			return []File{f, {Path: f.Path + ".copy", Data: f.Data}}, nil
		}
		return []File{f}, nil
	})

	outputs := runStage(t, st, namedFiles("keep.js", "gone.drop", "twice.dup"))

	var order []string
	for _, f := range outputs {
		order = append(order, f.Path)
	}
	assert.Equal(t, []string{"keep.js", "twice.dup", "twice.dup.copy"}, order)
}

func TestChain_StageErrorPropagates(t *testing.T) {
	failing := Map("failing", func(_ context.Context, f File) ([]File, error) {
		return nil, ferrors.StageError("refused").Build()
	})
	chain, err := NewChain("broken", Passthrough("head"), failing)
	require.NoError(t, err)

	in := make(chan File, 1)
	in <- File{Path: "a.html"}
	close(in)
	out := make(chan File, 4)

	runErr := chain.Run(context.Background(), in, out)
	require.Error(t, runErr)
	assert.True(t, ferrors.HasCategory(runErr, ferrors.CategoryStage))

	classified, ok := ferrors.AsClassified(runErr)
	require.True(t, ok)
	assert.Equal(t, "a.html", classified.Context()["path"])
}

func TestChain_Nests(t *testing.T) {
	inner, err := NewChain("inner", Passthrough("p1"), Passthrough("p2"))
	require.NoError(t, err)
	outer, err := NewChain("outer", inner, Passthrough("p3"))
	require.NoError(t, err)

	outputs := runStage(t, outer, namedFiles("x.html", "y.css"))
	require.Len(t, outputs, 2)
	assert.Equal(t, "x.html", outputs[0].Path)
	assert.Equal(t, "y.css", outputs[1].Path)
}
