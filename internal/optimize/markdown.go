package optimize

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/webforge-dev/webforge/internal/stream"
)

const markdownPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
%s</body>
</html>
`

// MarkdownStage returns the conditional Markdown page rendering stage:
// each .md source becomes an .html page at the same path.
func MarkdownStage(opts MarkdownOptions) stream.Stage {
	return stream.Conditional("render-markdown", stream.ExtPredicate(".md", ".markdown"), MarkdownTransform(opts))
}

// MarkdownTransform is the per-file Markdown transform.
func MarkdownTransform(opts MarkdownOptions) stream.Transform {
	md := goldmark.New()

	return func(_ context.Context, f stream.File) ([]stream.File, error) {
		if !opts.Enabled {
			return []stream.File{f}, nil
		}
		var body bytes.Buffer
		if err := md.Convert(f.Data, &body); err != nil {
			return nil, err
		}

		f.Path = replaceExt(f.Path) + ".html"
		f.Data = []byte(fmt.Sprintf(markdownPageTemplate, body.String()))
		return []stream.File{f}, nil
	}
}

func replaceExt(p string) string {
	if idx := strings.LastIndex(p, "."); idx > 0 {
		return p[:idx]
	}
	return p
}
