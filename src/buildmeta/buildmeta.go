// Package buildmeta resolves source identity for the working tree a build
// runs from: commit, branch, and whether local modifications exist.
package buildmeta

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// Info describes the source state a pipeline was built from.
type Info struct {
	Commit string // full hex commit hash
	Branch string // branch short name, empty on detached HEAD
	Dirty  bool   // uncommitted changes in the worktree
}

// Short returns the abbreviated commit hash.
func (i *Info) Short() string {
	if len(i.Commit) < 7 {
		return i.Commit
	}
	return i.Commit[:7]
}

// String renders the identity the way it appears in build output, for
// example "main@1a2b3c4" or "1a2b3c4 (dirty)".
func (i *Info) String() string {
	s := i.Short()
	if i.Branch != "" {
		s = i.Branch + "@" + s
	}
	if i.Dirty {
		s += " (dirty)"
	}
	return s
}

// Describe reads the repository containing root, searching parent
// directories for the .git dir the way git itself does. A root outside any
// repository, or a repository with no commits yet, yields (nil, nil):
// builds are allowed there, they just carry no source identity.
func Describe(root string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		// No HEAD to describe on an unborn branch.
		return nil, nil
	}

	info := &Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repository: commit identity only.
		return info, nil
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("reading worktree status: %w", err)
	}
	info.Dirty = !status.IsClean()
	return info, nil
}
