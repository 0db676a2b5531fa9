// Package output provides the terminal sink stage that persists pipeline
// files under a branch's output root.
package output

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
	"github.com/webforge-dev/webforge/internal/stream"
)

// Writer is a terminal Stage: it consumes every file and writes it under the
// configured root, emitting nothing downstream.
type Writer struct {
	name    string
	root    string
	written atomic.Int64
}

// NewWriter creates a writer rooted at root.
func NewWriter(name, root string) *Writer {
	return &Writer{name: name, root: root}
}

func (w *Writer) Name() string { return w.name }

// Root returns the output root.
func (w *Writer) Root() string { return w.root }

// Written returns the number of files persisted so far.
func (w *Writer) Written() int64 { return w.written.Load() }

// Run persists each incoming file. The stream-drained signal is Run
// returning nil: every file has been flushed to disk by then.
func (w *Writer) Run(ctx context.Context, in <-chan stream.File, _ chan<- stream.File) error {
	for {
		select {
		case f, ok := <-in:
			if !ok {
				return nil
			}
			if err := w.writeFile(f); err != nil {
				return err
			}
			w.written.Add(1)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Writer) writeFile(f stream.File) error {
	target := filepath.Join(w.root, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("path", f.Path).Build()
	}
	if err := os.WriteFile(target, f.Data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write output file").
			WithContext("path", f.Path).Build()
	}
	return nil
}
