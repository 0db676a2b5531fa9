package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
	"github.com/webforge-dev/webforge/internal/stream"
)

func TestWriter_PersistsNestedFiles(t *testing.T) {
	root := t.TempDir()
	w := NewWriter("sink", root)

	in := make(chan stream.File, 3)
	in <- stream.File{Path: "index.html", Data: []byte("<html></html>")}
	in <- stream.File{Path: "js/app.js", Data: []byte("1;")}
	in <- stream.File{Path: "css/deep/theme.css", Data: []byte("body{}")}
	close(in)

	require.NoError(t, w.Run(context.Background(), in, nil))
	assert.Equal(t, int64(3), w.Written())

	data, err := os.ReadFile(filepath.Join(root, "css", "deep", "theme.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
}

func TestWriter_UnwritableRootIsFileSystemError(t *testing.T) {
	root := t.TempDir()
	blocked := filepath.Join(root, "blocked")
	// A regular file where a directory is needed forces MkdirAll to fail.
	require.NoError(t, os.WriteFile(blocked, []byte("not a dir"), 0o644))

	w := NewWriter("sink", blocked)
	in := make(chan stream.File, 1)
	in <- stream.File{Path: "sub/index.html", Data: []byte("x")}
	close(in)

	err := w.Run(context.Background(), in, nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}
