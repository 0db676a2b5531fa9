// Package manifest records build provenance alongside each output tree.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// FileName is the manifest written into each branch output root.
const FileName = "manifest.json"

// Manifest describes one branch of one build.
type Manifest struct {
	BuildID  string    `json:"build_id"`
	Project  string    `json:"project"`
	Branch   string    `json:"branch"`
	BuiltAt  time.Time `json:"built_at"`
	Duration string    `json:"duration"`
	Files    int64     `json:"files"`
	VCS      *VCSInfo  `json:"vcs,omitempty"`
}

// VCSInfo is the git state of the project at build time.
type VCSInfo struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
}

// CollectVCS reads the git HEAD of the repository containing root. Projects
// outside version control get a nil VCSInfo; that is not an error.
func CollectVCS(root string) *VCSInfo {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}
	info := &VCSInfo{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info
}

// Write persists the manifest as manifest.json in root.
func Write(root string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return ferrors.InternalError("encode manifest").WithCause(err).Build()
	}
	data = append(data, '\n')

	target := filepath.Join(root, FileName)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write manifest").
			WithContext("path", target).Build()
	}
	return nil
}
