package bundle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webforge-dev/webforge/internal/stream"
)

func runBundler(t *testing.T, files []stream.File) map[string]string {
	t.Helper()
	st := NewStage()

	in := make(chan stream.File, len(files))
	for _, f := range files {
		in <- f
	}
	close(in)
	out := make(chan stream.File, len(files)+4)

	require.NoError(t, st.Run(context.Background(), in, out))
	close(out)

	got := make(map[string]string)
	for f := range out {
		got[f.Path] = string(f.Data)
	}
	return got
}

func TestBundler_InlinesAndDropsAssets(t *testing.T) {
	files := []stream.File{
		{Path: "index.html", Data: []byte(`<html><head><link rel="stylesheet" href="css/app.css"></head><body><script src="js/app.js"></script></body></html>`)},
		{Path: "css/app.css", Data: []byte("body{color:red}")},
		{Path: "js/app.js", Data: []byte("console.log(1);")},
		{Path: "images/logo.png", Data: []byte{0x89, 0x50}},
	}

	got := runBundler(t, files)

	require.Contains(t, got, "index.html")
	page := got["index.html"]
	assert.Contains(t, page, "<style>body{color:red}</style>")
	assert.Contains(t, page, "console.log(1);")
	assert.NotContains(t, page, `src="js/app.js"`)
	assert.NotContains(t, page, `href="css/app.css"`)

	// Inlined assets are dropped from the bundled output; unrelated files stay.
	assert.NotContains(t, got, "css/app.css")
	assert.NotContains(t, got, "js/app.js")
	assert.Contains(t, got, "images/logo.png")
}

func TestBundler_LeavesExternalRefsAlone(t *testing.T) {
	files := []stream.File{
		{Path: "index.html", Data: []byte(`<html><head><script src="https://cdn.example.com/lib.js"></script></head><body></body></html>`)},
	}

	got := runBundler(t, files)
	assert.Contains(t, got["index.html"], `src="https://cdn.example.com/lib.js"`)
}

func TestBundler_MissingAssetKeepsReference(t *testing.T) {
	files := []stream.File{
		{Path: "index.html", Data: []byte(`<html><body><script src="js/missing.js"></script></body></html>`)},
	}

	got := runBundler(t, files)
	assert.Contains(t, got["index.html"], `src="js/missing.js"`)
}

func TestBundler_SharedAssetInlinedIntoEveryReferrer(t *testing.T) {
	files := []stream.File{
		{Path: "a.html", Data: []byte(`<html><body><script src="shared.js"></script></body></html>`)},
		{Path: "b.html", Data: []byte(`<html><body><script src="shared.js"></script></body></html>`)},
		{Path: "shared.js", Data: []byte("var shared=1;")},
	}

	got := runBundler(t, files)
	assert.Contains(t, got["a.html"], "var shared=1;")
	assert.Contains(t, got["b.html"], "var shared=1;")
	assert.NotContains(t, got, "shared.js")
}
