// Package resolve turns user-supplied commit-ish strings into commits and selects the parent a
// change is computed against.
package resolve

import (
	"gitlab.com/folio-vcs/folio/internal/errors"
	"gitlab.com/folio-vcs/folio/internal/git"
)

// Kind classifies a commit by its number of parents.
type Kind int

const (
	// KindRoot is a commit without parents.
	KindRoot Kind = iota
	// KindSingleParent is an ordinary commit.
	KindSingleParent
	// KindMerge is a commit with two or more parents.
	KindMerge
)

// Classify returns the kind of the commit.
func Classify(commit git.Commit) Kind {
	switch len(commit.ParentIDs) {
	case 0:
		return KindRoot
	case 1:
		return KindSingleParent
	default:
		return KindMerge
	}
}

// CommitLookup resolves revisions to commits.
type CommitLookup interface {
	ResolveCommit(revision git.Revision) (git.Commit, error)
}

// Resolver resolves commit-ish strings in a single repository.
type Resolver struct {
	repo CommitLookup
}

// NewResolver creates a new Resolver.
func NewResolver(repo CommitLookup) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve resolves the revision to a commit. It returns a CommitNotFoundError if the revision
// does not point to a commit, including revisions that cannot be passed to the revision parser.
func (r *Resolver) Resolve(revision git.Revision) (git.Commit, error) {
	if err := git.ValidateRevision(revision); err != nil {
		return git.Commit{}, errors.CommitNotFoundError{Revision: revision.String()}
	}

	commit, err := r.repo.ResolveCommit(revision)
	if err != nil {
		return git.Commit{}, err
	}

	return commit, nil
}

// RevertParent returns the parent a revert is computed against: the first parent, or an empty ID
// for a root commit.
func RevertParent(commit git.Commit) git.ObjectID {
	if len(commit.ParentIDs) == 0 {
		return ""
	}
	return commit.ParentIDs[0]
}

// CherryPickParent validates the 1-based mainline selection against the commit and returns the
// parent the picked change is computed against. A mainline of zero means that none was given. It
// is required for merge commits and forbidden otherwise. Root commits yield an empty ID.
func CherryPickParent(commit git.Commit, mainline uint) (git.ObjectID, error) {
	parentCount := len(commit.ParentIDs)

	switch Classify(commit) {
	case KindMerge:
		if mainline == 0 || mainline > uint(parentCount) {
			return "", errors.InvalidMainlineError{Mainline: mainline, ParentCount: parentCount}
		}
		return commit.ParentIDs[mainline-1], nil
	case KindSingleParent:
		if mainline != 0 {
			return "", errors.InvalidMainlineError{Mainline: mainline, ParentCount: parentCount}
		}
		return commit.ParentIDs[0], nil
	default:
		if mainline != 0 {
			return "", errors.InvalidMainlineError{Mainline: mainline, ParentCount: parentCount}
		}
		return "", nil
	}
}
