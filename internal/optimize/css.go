package optimize

import (
	"bytes"
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"github.com/webforge-dev/webforge/internal/stream"
)

// CSSStage returns the conditional CSS optimization stage.
func CSSStage(opts CSSOptions) stream.Stage {
	return stream.Conditional("optimize-css", stream.ExtPredicate(".css"), CSSTransform(opts))
}

// CSSTransform is the per-file CSS transform.
func CSSTransform(opts CSSOptions) stream.Transform {
	m := minify.New()
	m.Add("text/css", &css.Minifier{})

	return func(_ context.Context, f stream.File) ([]stream.File, error) {
		if !opts.enabled() {
			return []stream.File{f}, nil
		}
		var buf bytes.Buffer
		if err := m.Minify("text/css", &buf, bytes.NewReader(f.Data)); err != nil {
			return nil, err
		}
		f.Data = buf.Bytes()
		return []stream.File{f}, nil
	}
}
