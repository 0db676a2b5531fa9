package prefetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webforge-dev/webforge/internal/stream"
)

func TestInsertLinks_AddsPrefetchHints(t *testing.T) {
	f := stream.File{
		Path:   "index.html",
		Data:   []byte(`<html><head><title>app</title></head><body></body></html>`),
		Assets: []string{"js/app.js", "css/app.css"},
	}

	outs, err := insertLinks(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, outs, 1)

	page := string(outs[0].Data)
	assert.Contains(t, page, `<link rel="prefetch" href="/js/app.js"/>`)
	assert.Contains(t, page, `<link rel="prefetch" href="/css/app.css"/>`)
}

func TestStage_SkipsUnannotatedFiles(t *testing.T) {
	st := NewStage()

	in := make(chan stream.File, 2)
	in <- stream.File{Path: "plain.html", Data: []byte("<html><head></head><body>x</body></html>")}
	in <- stream.File{Path: "app.css", Data: []byte("body{}")}
	close(in)
	out := make(chan stream.File, 2)

	require.NoError(t, st.Run(context.Background(), in, out))
	close(out)

	page := <-out
	css := <-out
	assert.Equal(t, "<html><head></head><body>x</body></html>", string(page.Data))
	assert.Equal(t, "body{}", string(css.Data))
}
