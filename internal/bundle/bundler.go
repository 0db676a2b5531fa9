// Package bundle implements the bundled-branch terminal transform: it
// inlines project-local stylesheets and scripts into the HTML pages that
// reference them and drops the inlined assets from the output.
package bundle

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/webforge-dev/webforge/internal/analyze"
	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
	"github.com/webforge-dev/webforge/internal/stream"
)

// NewStage returns the bundling stage. Bundling needs the complete file set
// before it can rewrite anything, so the stage is authored as sequential
// adapter logic: collect to end of input, then emit the bundled set. This
// is the one stage whose buffering is inherent to its job.
func NewStage() stream.Stage {
	return stream.FromFunc("bundle", func(ctx context.Context, in <-chan stream.File, emit func(stream.File) error) error {
		var files []stream.File
		byPath := make(map[string]int)
		for f := range in {
			byPath[f.Path] = len(files)
			files = append(files, f)
		}

		inlined := make(map[string]struct{})
		bundled := make([]stream.File, len(files))

		for i, f := range files {
			ext := f.Ext()
			if ext != ".html" && ext != ".htm" {
				bundled[i] = f
				continue
			}
			data, used, err := inlineAssets(f, func(p string) ([]byte, bool) {
				idx, ok := byPath[p]
				if !ok {
					return nil, false
				}
				return files[idx].Data, true
			})
			if err != nil {
				return err
			}
			f.Data = data
			bundled[i] = f
			for _, p := range used {
				inlined[p] = struct{}{}
			}
		}

		// Emit in original order, dropping assets that were inlined somewhere.
		for _, f := range bundled {
			if _, dropped := inlined[f.Path]; dropped {
				continue
			}
			if err := emit(f); err != nil {
				return err
			}
		}
		return nil
	})
}

// inlineAssets rewrites one HTML document, replacing local stylesheet links
// with style elements and local script sources with inline scripts. It
// returns the rewritten document and the project paths that were inlined.
func inlineAssets(f stream.File, lookup func(string) ([]byte, bool)) ([]byte, []string, error) {
	doc, err := html.Parse(bytes.NewReader(f.Data))
	if err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryBundle, "parse HTML").
			WithContext("path", f.Path).Build()
	}

	var used []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			walk(c)
			c = next
		}
		if n.Type != html.ElementNode {
			return
		}

		switch n.Data {
		case "link":
			if rel, _ := findAttr(n, "rel"); !strings.EqualFold(rel, "stylesheet") {
				return
			}
			href, ok := findAttr(n, "href")
			if !ok {
				return
			}
			local, ok := analyze.ResolveLocal(f.Path, href)
			if !ok {
				return
			}
			data, ok := lookup(local)
			if !ok {
				return
			}
			style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: 0}
			style.AppendChild(&html.Node{Type: html.TextNode, Data: string(data)})
			n.Parent.InsertBefore(style, n)
			n.Parent.RemoveChild(n)
			used = append(used, local)

		case "script":
			src, ok := findAttr(n, "src")
			if !ok {
				return
			}
			local, ok := analyze.ResolveLocal(f.Path, src)
			if !ok {
				return
			}
			data, ok := lookup(local)
			if !ok {
				return
			}
			removeAttr(n, "src")
			n.AppendChild(&html.Node{Type: html.TextNode, Data: string(data)})
			used = append(used, local)
		}
	}
	walk(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryBundle, "render HTML").
			WithContext("path", f.Path).Build()
	}
	return buf.Bytes(), used, nil
}

func findAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, a.Val != ""
		}
	}
	return "", false
}

func removeAttr(n *html.Node, name string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != name {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
}
