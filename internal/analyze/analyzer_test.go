package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webforge-dev/webforge/internal/stream"
)

const sampleDoc = `<!DOCTYPE html>
<html>
<head>
  <link rel="stylesheet" href="css/app.css">
  <link rel="icon" href="favicon.ico">
  <script src="js/app.js"></script>
  <script src="https://cdn.example.com/lib.js"></script>
</head>
<body>
  <img src="/images/logo.png">
  <img src="data:image/png;base64,AAAA">
  <script src="js/app.js"></script>
</body>
</html>`

func TestLocalAssets_ExtractsLocalRefsInOrder(t *testing.T) {
	assets, err := LocalAssets([]byte(sampleDoc), "index.html")
	require.NoError(t, err)

	// External URL and data URI are skipped; the duplicate script appears once;
	// the icon link is not an asset rel.
	assert.Equal(t, []string{"css/app.css", "js/app.js", "images/logo.png"}, assets)
}

func TestLocalAssets_ResolvesRelativeToDocument(t *testing.T) {
	doc := `<html><head><script src="../shared/util.js"></script><link rel="stylesheet" href="style.css"></head></html>`
	assets, err := LocalAssets([]byte(doc), "pages/about.html")
	require.NoError(t, err)
	assert.Equal(t, []string{"shared/util.js", "pages/style.css"}, assets)
}

func TestResolveLocal(t *testing.T) {
	tests := []struct {
		name    string
		docPath string
		ref     string
		want    string
		ok      bool
	}{
		{"sibling", "index.html", "app.js", "app.js", true},
		{"subdir", "index.html", "js/app.js", "js/app.js", true},
		{"root relative", "pages/about.html", "/js/app.js", "js/app.js", true},
		{"parent dir", "pages/about.html", "../app.js", "app.js", true},
		{"escapes root", "index.html", "../outside.js", "", false},
		{"absolute url", "index.html", "https://example.com/x.js", "", false},
		{"protocol relative", "index.html", "//example.com/x.js", "", false},
		{"data uri", "index.html", "data:text/plain,hi", "", false},
		{"fragment only", "index.html", "#section", "", false},
		{"query stripped", "index.html", "app.js?v=2", "app.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveLocal(tt.docPath, tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStage_AnnotatesOnlyHTML(t *testing.T) {
	st := NewStage()

	in := make(chan stream.File, 2)
	in <- stream.File{Path: "app.css", Data: []byte("body{}")}
	in <- stream.File{Path: "index.html", Data: []byte(sampleDoc)}
	close(in)
	out := make(chan stream.File, 2)

	require.NoError(t, st.Run(context.Background(), in, out))
	close(out)

	css := <-out
	page := <-out
	assert.Nil(t, css.Assets)
	assert.Equal(t, []string{"css/app.css", "js/app.js", "images/logo.png"}, page.Assets)
}
