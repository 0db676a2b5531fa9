package optimize

import (
	"bytes"
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/webforge-dev/webforge/internal/stream"
)

// HTMLStage returns the conditional HTML optimization stage. Files that are
// not HTML bypass it in their original position; disabled options make it a
// passthrough for HTML too.
func HTMLStage(opts HTMLOptions) stream.Stage {
	return stream.Conditional("optimize-html", stream.ExtPredicate(".html", ".htm"), HTMLTransform(opts))
}

// HTMLTransform is the per-file HTML transform, exposed for composition in
// tests and custom chains.
func HTMLTransform(opts HTMLOptions) stream.Transform {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepComments:     !opts.Minify,
		KeepDocumentTags: true,
		KeepEndTags:      !opts.Minify,
		KeepQuotes:       !opts.Minify,
		KeepWhitespace:   !opts.CollapseWhitespace && !opts.Minify,
	})

	return func(_ context.Context, f stream.File) ([]stream.File, error) {
		if !opts.enabled() {
			return []stream.File{f}, nil
		}
		var buf bytes.Buffer
		if err := m.Minify("text/html", &buf, bytes.NewReader(f.Data)); err != nil {
			return nil, err
		}
		f.Data = buf.Bytes()
		return []stream.File{f}, nil
	}
}
