// Package stream provides the streaming primitives for webforge builds:
// the File item flowing through a pipeline, the Stage contract, the
// push-to-sequential Adapter, stage composition, and stream forking.
package stream

import (
	"path"
	"strings"
)

// File is one unit of data flowing through the build pipeline. A stage
// consumes one File and emits zero or more new Files; a File must not be
// mutated after it has been emitted.
type File struct {
	// Path is the slash-separated path relative to the project root.
	Path string

	// Data is the file payload.
	Data []byte

	// Dep marks files that came from the dependency provider rather than
	// the project sources.
	Dep bool

	// Assets lists project-local asset references (scripts, stylesheets,
	// images) discovered by the analyzer. Only set on HTML files.
	Assets []string
}

// Ext returns the lower-cased file extension including the leading dot.
func (f File) Ext() string {
	return strings.ToLower(path.Ext(f.Path))
}

// Clone returns a deep copy of the file. Forked branches receive clones so
// that neither branch can observe the other's mutations.
func (f File) Clone() File {
	clone := f
	if f.Data != nil {
		clone.Data = make([]byte, len(f.Data))
		copy(clone.Data, f.Data)
	}
	if f.Assets != nil {
		clone.Assets = make([]string, len(f.Assets))
		copy(clone.Assets, f.Assets)
	}
	return clone
}
