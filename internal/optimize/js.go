package optimize

import (
	"bytes"
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"

	"github.com/webforge-dev/webforge/internal/stream"
)

// JSStage returns the conditional JavaScript optimization stage.
func JSStage(opts JSOptions) stream.Stage {
	return stream.Conditional("optimize-js", stream.ExtPredicate(".js", ".mjs"), JSTransform(opts))
}

// JSTransform is the per-file JavaScript transform.
func JSTransform(opts JSOptions) stream.Transform {
	m := minify.New()
	m.Add("text/javascript", &js.Minifier{})

	return func(_ context.Context, f stream.File) ([]stream.File, error) {
		if !opts.Minify {
			return []stream.File{f}, nil
		}
		var buf bytes.Buffer
		if err := m.Minify("text/javascript", &buf, bytes.NewReader(f.Data)); err != nil {
			return nil, err
		}
		f.Data = buf.Bytes()
		return []stream.File{f}, nil
	}
}
