// Package gitrev resolves git references to commits for building trigger
// contexts. A pipeline run is bound to an exact (ref, commit) pair, so the CLI
// resolves the ref once up front and every later stage works from the pinned
// commit hash.
package gitrev

import (
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// Resolver resolves revisions against one local repository.
type Resolver struct {
	repo *gogit.Repository
}

// Open opens the repository at path, searching parent directories for the
// repository root the way git itself does.
func Open(path string) (*Resolver, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, ferrors.Wrapf("gitrev.open", ferrors.CodeInvalidInput, err,
			"opening repository at %q", path)
	}
	return &Resolver{repo: repo}, nil
}

// NewResolver wraps an already-open repository.
func NewResolver(repo *gogit.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve resolves a revision specifier (branch name, tag, or hash prefix) to
// a full commit hash.
func (r *Resolver) Resolve(revision string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return "", ferrors.Wrapf("gitrev.resolve", ferrors.CodeInvalidInput, err,
			"resolving revision %q", revision)
	}
	return hash.String(), nil
}

// Head returns the checked-out ref's short name and commit hash.
func (r *Resolver) Head() (refName, commitSHA string, err error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", "", ferrors.Wrap("gitrev.head", ferrors.CodeInvalidInput, err)
	}
	return head.Name().Short(), head.Hash().String(), nil
}

// TriggerContext builds the trigger context for a pipeline. An empty refName
// means the checked-out HEAD; otherwise the ref is resolved to its commit.
func (r *Resolver) TriggerContext(pipeline, refName string) (domain.TriggerContext, error) {
	if refName == "" {
		name, sha, err := r.Head()
		if err != nil {
			return domain.TriggerContext{}, err
		}
		return domain.TriggerContext{Pipeline: pipeline, RefName: name, CommitSHA: sha}, nil
	}

	sha, err := r.Resolve(refName)
	if err != nil {
		return domain.TriggerContext{}, err
	}
	return domain.TriggerContext{Pipeline: pipeline, RefName: refName, CommitSHA: sha}, nil
}
