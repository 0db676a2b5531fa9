// Package analyze inspects HTML files in the merged build stream and
// annotates each with the project-local assets it references. Downstream
// stages (bundling, prefetch link insertion) and both build branches work
// from these annotations.
package analyze

import (
	"bytes"
	"context"
	"path"
	"strings"

	"golang.org/x/net/html"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
	"github.com/webforge-dev/webforge/internal/stream"
)

// NewStage returns the analyzer stage. HTML files pass through annotated;
// everything else passes through untouched.
func NewStage() stream.Stage {
	return stream.Conditional("analyze", stream.ExtPredicate(".html", ".htm"),
		func(_ context.Context, f stream.File) ([]stream.File, error) {
			assets, err := LocalAssets(f.Data, f.Path)
			if err != nil {
				return nil, err
			}
			f.Assets = assets
			return []stream.File{f}, nil
		})
}

// LocalAssets parses an HTML document and returns the project-local asset
// paths it references via script src, stylesheet links, and image sources,
// in document order without duplicates.
func LocalAssets(data []byte, docPath string) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStage, "parse HTML").
			WithContext("path", docPath).Build()
	}

	var assets []string
	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if ref, ok := assetRef(n); ok {
				if local, ok := ResolveLocal(docPath, ref); ok {
					if _, dup := seen[local]; !dup {
						seen[local] = struct{}{}
						assets = append(assets, local)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return assets, nil
}

// assetRef extracts the reference attribute for elements that pull in
// project assets.
func assetRef(n *html.Node) (string, bool) {
	switch n.Data {
	case "script":
		return attr(n, "src")
	case "img":
		return attr(n, "src")
	case "link":
		rel, _ := attr(n, "rel")
		switch strings.ToLower(rel) {
		case "stylesheet", "import", "preload", "modulepreload":
			return attr(n, "href")
		}
	}
	return "", false
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name && a.Val != "" {
			return a.Val, true
		}
	}
	return "", false
}

// ResolveLocal resolves a reference found in the document at docPath to a
// project-relative path. External URLs, protocol-relative URLs, and data
// URIs resolve to false.
func ResolveLocal(docPath, ref string) (string, bool) {
	if ref == "" || strings.Contains(ref, "://") ||
		strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "data:") ||
		strings.HasPrefix(ref, "mailto:") || strings.HasPrefix(ref, "#") {
		return "", false
	}
	// Strip query and fragment.
	if idx := strings.IndexAny(ref, "?#"); idx >= 0 {
		ref = ref[:idx]
	}
	if ref == "" {
		return "", false
	}

	if strings.HasPrefix(ref, "/") {
		return strings.TrimPrefix(path.Clean(ref), "/"), true
	}

	resolved := path.Join(path.Dir(docPath), ref)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		// Reference escapes the project root.
		return "", false
	}
	return resolved, true
}
