package store

import (
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/localcortex/lattice/internal/errkit"
)

// CloneRepo materializes a repo store by cloning url into destDir,
// checking out branch if given (empty branch clones the remote's default),
// grounded on the teacher's use of go-git (ferg-cod3s-conexus's
// internal/mcp/git_helper.go uses go-git's PlainOpen for repo introspection
// this package follows the same library for the clone side of a repo
// store's lifecycle).
func CloneRepo(url, branch, destDir string) error {
	opts := &git.CloneOptions{URL: url, Depth: 1}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}
	if _, err := git.PlainClone(destDir, false, opts); err != nil {
		return errkit.Wrap(errkit.Fatal, "clone repo "+url, err)
	}
	return nil
}

// FSTreeRemover implements TreeRemover by deleting a cloned working tree
// from the filesystem.
type FSTreeRemover struct{}

func (FSTreeRemover) RemoveTree(path string) error {
	if path == "" {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return errkit.Wrap(errkit.Fatal, "remove working tree "+path, err)
	}
	return nil
}
