// Package prefetch inserts prefetch link hints into HTML pages of the
// unbundled build output, based on the analyzer's asset annotations.
package prefetch

import (
	"bytes"
	"context"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
	"github.com/webforge-dev/webforge/internal/stream"
)

// NewStage returns the prefetch-link insertion stage. It only rewrites HTML
// files the analyzer annotated with assets; everything else passes through.
func NewStage() stream.Stage {
	pred := func(f stream.File) bool {
		ext := f.Ext()
		return (ext == ".html" || ext == ".htm") && len(f.Assets) > 0
	}
	return stream.Conditional("prefetch-links", pred, insertLinks)
}

func insertLinks(_ context.Context, f stream.File) ([]stream.File, error) {
	doc, err := html.Parse(bytes.NewReader(f.Data))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStage, "parse HTML").
			WithContext("path", f.Path).Build()
	}

	head := findHead(doc)
	if head == nil {
		return []stream.File{f}, nil
	}

	for _, asset := range f.Assets {
		link := &html.Node{
			Type:     html.ElementNode,
			Data:     "link",
			DataAtom: atom.Link,
			Attr: []html.Attribute{
				{Key: "rel", Val: "prefetch"},
				{Key: "href", Val: "/" + asset},
			},
		}
		head.AppendChild(link)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStage, "render HTML").
			WithContext("path", f.Path).Build()
	}
	f.Data = buf.Bytes()
	return []stream.File{f}, nil
}

func findHead(doc *html.Node) *html.Node {
	var head *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if head != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Head {
			head = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return head
}
