// Package errors defines the failure taxonomy shared by every writer operation. Validation
// failures are returned before anything in the repository is touched; all other failures are
// returned only after the repository has been restored to its previous state.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRepositoryNotFound is returned when no repository exists at the given path.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrNoChangesToSave is returned when a save would record a commit identical to HEAD, or
	// when nothing could be staged for the very first commit.
	ErrNoChangesToSave = errors.New("no changes to save")
	// ErrEmptyChange is returned when applying a change leaves the tree of HEAD unchanged.
	ErrEmptyChange = errors.New("could not apply because the result was empty")
)

// CommitNotFoundError is returned when a revision does not resolve to a commit.
type CommitNotFoundError struct {
	// Revision is the revision that could not be resolved.
	Revision string
}

func (err CommitNotFoundError) Error() string {
	return fmt.Sprintf("commit not found: %q", err.Revision)
}

// InvalidMainlineError is returned when the mainline parent selection does not fit the commit
// that is to be cherry-picked.
type InvalidMainlineError struct {
	// Mainline is the requested 1-based parent number. Zero means that no mainline was given.
	Mainline uint
	// ParentCount is the number of parents of the commit.
	ParentCount int
}

func (err InvalidMainlineError) Error() string {
	switch {
	case err.Mainline == 0:
		return fmt.Sprintf("commit is a merge with %d parents but no mainline was given", err.ParentCount)
	case err.ParentCount <= 1:
		return fmt.Sprintf("mainline %d was given but commit is not a merge", err.Mainline)
	default:
		return fmt.Sprintf("mainline %d is out of range for a commit with %d parents", err.Mainline, err.ParentCount)
	}
}

// MergeConflictError is returned when a change cannot be applied without conflicts, or when
// unresolved conflicts remain while finalizing a merge or revert.
type MergeConflictError struct {
	// Operation is the operation that ran into the conflicts, e.g. "revert" or "merge".
	Operation string
	// Paths are the conflicting paths in sorted order.
	Paths []string
}

func (err MergeConflictError) Error() string {
	return fmt.Sprintf("%s: could not apply due to conflicts in %s", err.Operation, strings.Join(err.Paths, ", "))
}

// RepositoryStateError is returned when the repository is not in a state that allows the
// requested operation.
type RepositoryStateError struct {
	// Reason describes the offending state.
	Reason string
}

func (err RepositoryStateError) Error() string {
	return "invalid repository state: " + err.Reason
}

// InvalidArgumentError is returned when a request is malformed, for example when a revision is
// syntactically invalid.
type InvalidArgumentError struct {
	// Reason describes what is wrong with the request.
	Reason string
}

func (err InvalidArgumentError) Error() string {
	return err.Reason
}

// NewInvalidArgumentError creates an InvalidArgumentError with a formatted reason.
func NewInvalidArgumentError(format string, args ...any) InvalidArgumentError {
	return InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// NewRepositoryStateError creates a RepositoryStateError with a formatted reason.
func NewRepositoryStateError(format string, args ...any) RepositoryStateError {
	return RepositoryStateError{Reason: fmt.Sprintf(format, args...)}
}
