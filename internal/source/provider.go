// Package source emits project source and dependency files into a build
// pipeline.
package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
	"github.com/webforge-dev/webforge/internal/stream"
)

// Provider walks a project tree and its dependency directories and emits
// one stream.File per regular file. Dependency files are flagged so
// downstream stages can treat them differently.
type Provider struct {
	root    string
	depDirs []string // project-relative, slash-separated
	exclude []string // directory names skipped everywhere
}

// NewProvider creates a provider for the project rooted at root. depDirs
// are emitted with the Dep flag; exclude lists directory names that are
// never walked (output roots, VCS metadata).
func NewProvider(root string, depDirs, exclude []string) *Provider {
	return &Provider{root: root, depDirs: depDirs, exclude: exclude}
}

// Emit sends all project sources, then all dependency files, to out. The
// caller owns out and closes it after Emit returns. Order within each
// walk is the deterministic lexical order of filepath.WalkDir.
func (p *Provider) Emit(ctx context.Context, out chan<- stream.File) error {
	if err := p.walk(ctx, p.root, false, out); err != nil {
		return err
	}
	for _, dir := range p.depDirs {
		abs := filepath.Join(p.root, filepath.FromSlash(dir))
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			continue
		}
		if err := p.walk(ctx, abs, true, out); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) walk(ctx context.Context, base string, dep bool, out chan<- stream.File) error {
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(p.root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p.skipDir(d.Name(), rel, dep) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}

		select {
		case out <- stream.File{Path: rel, Data: data, Dep: dep}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk sources").
			WithContext("root", base).Build()
	}
	return nil
}

func (p *Provider) skipDir(name, rel string, dep bool) bool {
	if rel == "." {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ex := range p.exclude {
		if name == ex || rel == ex || strings.HasPrefix(rel, ex+"/") {
			return true
		}
	}
	// The source walk must not descend into dependency directories; those
	// are emitted by their own walk with the Dep flag set.
	if !dep {
		for _, d := range p.depDirs {
			if rel == d || strings.HasPrefix(rel, d+"/") {
				return true
			}
		}
	}
	return false
}
