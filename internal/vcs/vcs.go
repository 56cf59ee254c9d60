// Package vcs applies add/remove intents for generated outputs to the
// version-control working index. Newly created outputs must be staged so
// pre-commit style tooling picks them up.
package vcs

import (
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"

	"git.home.luguber.info/inful/webcompile/internal/errors"
)

// Registrar receives add/remove intents for output paths relative to the
// project root. Disabling registration is a pass-through no-op.
type Registrar interface {
	Add(relPath string) error
	Remove(relPath string) error
}

// Noop discards all intents (--no-git-add).
type Noop struct{}

func (Noop) Add(string) error    { return nil }
func (Noop) Remove(string) error { return nil }

// GitRegistrar stages intents in the git index of the repository at root.
type GitRegistrar struct {
	worktree *git.Worktree
}

// Open opens the repository at root. The root itself must be a repository;
// parent directories are not searched.
func Open(root string) (*GitRegistrar, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, errors.GitRepoNotFound(root)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.GitIndexError(root, err)
	}
	return &GitRegistrar{worktree: wt}, nil
}

// Add stages a newly written output file.
func (g *GitRegistrar) Add(relPath string) error {
	if _, err := g.worktree.Add(filepath.ToSlash(relPath)); err != nil {
		return errors.GitIndexError(relPath, err)
	}
	return nil
}

// Remove stages the deletion of a pruned output file. Paths that were never
// tracked are not an error.
func (g *GitRegistrar) Remove(relPath string) error {
	_, err := g.worktree.Remove(filepath.ToSlash(relPath))
	if err == nil || err == index.ErrEntryNotFound || os.IsNotExist(err) {
		return nil
	}
	return errors.GitIndexError(relPath, err)
}
