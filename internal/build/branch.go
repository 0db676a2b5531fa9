package build

import (
	"context"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
	"github.com/webforge-dev/webforge/internal/output"
	"github.com/webforge-dev/webforge/internal/stream"
)

// PostFunc runs after a branch has flushed every file to disk, with the
// branch output root. Worker generation hangs off this hook.
type PostFunc func(ctx context.Context, root string) error

// Branch is one output flavor of a build: a stage chain ending in a disk
// writer, plus an optional post step that runs once the tree is complete.
type Branch struct {
	name   string
	chain  *stream.Chain
	writer *output.Writer
	post   PostFunc
}

// NewBranch wires stages and a terminal writer rooted at root into a branch
// pipeline.
func NewBranch(name, root string, post PostFunc, stages ...stream.Stage) (*Branch, error) {
	w := output.NewWriter(name+"-writer", root)
	chain, err := stream.NewChain(name, append(stages, stream.Stage(w))...)
	if err != nil {
		return nil, err
	}
	return &Branch{name: name, chain: chain, writer: w, post: post}, nil
}

// Name returns the branch name.
func (b *Branch) Name() string { return b.name }

// Root returns the branch output root.
func (b *Branch) Root() string { return b.writer.Root() }

// Written returns how many files the branch persisted.
func (b *Branch) Written() int64 { return b.writer.Written() }

// Run consumes the branch's input stream to completion. Even when the chain
// fails, the remaining input is drained so the fork feeding this branch is
// never left blocked on a send.
func (b *Branch) Run(ctx context.Context, in <-chan stream.File) error {
	if err := b.chain.Run(ctx, in, nil); err != nil {
		for range in {
		}
		return b.failure(err)
	}

	if b.post != nil {
		if err := b.post(ctx, b.writer.Root()); err != nil {
			return b.failure(err)
		}
	}
	return nil
}

func (b *Branch) failure(err error) error {
	if classified, ok := ferrors.AsClassified(err); ok {
		return classified.WithContext("branch", b.name)
	}
	return ferrors.WrapError(err, ferrors.CategoryStage, "branch failed").
		WithContext("branch", b.name).Build()
}
