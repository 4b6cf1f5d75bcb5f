// Package merge applies or un-applies a historical change against HEAD by way of a three-way
// tree merge.
package merge

import (
	"fmt"

	"gitlab.com/folio-vcs/folio/internal/errors"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/conflict"
)

// Merger computes the three-way merge of trees. An empty ancestor merges without a common base.
// The merged tree is only returned when there are no conflicts.
type Merger interface {
	MergeTrees(ancestor, ours, theirs git.ObjectID) (git.ObjectID, conflict.Set, error)
}

// Stager replaces the index with a tree and forces the working directory to match it.
type Stager interface {
	StageTree(tree git.ObjectID) error
}

// Input describes a single tree merge.
type Input struct {
	// Operation is the name used in errors, like "revert" or "cherry-pick".
	Operation string
	// Ancestor is the common base. It is empty if there is none.
	Ancestor git.ObjectID
	// Ours is the tree of HEAD.
	Ours git.ObjectID
	// Theirs is the tree that is merged into ours.
	Theirs git.ObjectID
}

// RevertInput creates the input for reverting a commit whose tree is commitTree. parentTree is
// the tree of the reverted commit's first parent, or the empty tree for a root commit.
func RevertInput(commitTree, parentTree, headTree git.ObjectID) Input {
	return Input{
		Operation: "revert",
		Ancestor:  commitTree,
		Ours:      headTree,
		Theirs:    parentTree,
	}
}

// CherryPickInput creates the input for picking a commit whose tree is commitTree. parentTree is
// the tree of the selected parent and is empty for a root commit.
func CherryPickInput(parentTree, headTree, commitTree git.ObjectID) Input {
	return Input{
		Operation: "cherry-pick",
		Ancestor:  parentTree,
		Ours:      headTree,
		Theirs:    commitTree,
	}
}

// Transaction merges trees and stages the result. It never stages a partial result: either the
// whole merged tree is staged or nothing is.
type Transaction struct {
	merger Merger
	stager Stager
}

// NewTransaction creates a new Transaction.
func NewTransaction(merger Merger, stager Stager) *Transaction {
	return &Transaction{merger: merger, stager: stager}
}

// Apply merges the input's trees. On success the merged tree has been staged and its ID is
// returned. A MergeConflictError is returned if any path conflicts, and ErrEmptyChange if the
// merged tree is identical to ours.
func (t *Transaction) Apply(in Input) (git.ObjectID, error) {
	tree, conflicts, err := t.merger.MergeTrees(in.Ancestor, in.Ours, in.Theirs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", in.Operation, err)
	}

	if conflicts.HasConflicts() {
		return "", errors.MergeConflictError{
			Operation: in.Operation,
			Paths:     conflicts.Paths(),
		}
	}

	if tree == in.Ours {
		return "", fmt.Errorf("%s: %w", in.Operation, errors.ErrEmptyChange)
	}

	if err := t.stager.StageTree(tree); err != nil {
		return "", fmt.Errorf("%s: stage merged tree: %w", in.Operation, err)
	}

	return tree, nil
}
