// Package save records the working directory as a new commit. A merge or revert that has been
// started by another tool but not committed yet is finalized on the way.
package save

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/folio-vcs/folio/internal/errors"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/conflict"
	"gitlab.com/folio-vcs/folio/internal/git/repository"
	"gitlab.com/folio-vcs/folio/internal/git/synthesize"
)

// ErrMissingMessage is returned when an ordinary save is requested without a commit message.
var ErrMissingMessage = errors.InvalidArgumentError{Reason: "missing commit message"}

// Request describes what to save.
type Request struct {
	// Message is the commit message. It is optional when finalizing a merge or revert.
	Message string
	// Paths restricts an ordinary save to the given files and directories. All changes are
	// saved if it is empty.
	Paths []string
}

// Result describes the commit that has been created.
type Result struct {
	CommitID       git.ObjectID
	ShortID        string
	Branch         string
	IsMergeCommit  bool
	IsRevertCommit bool
	// Warnings lists requested paths that have been skipped.
	Warnings []string
}

// Operation saves changes in a single repository.
type Operation struct {
	repo         *repository.Repository
	synthesizer  *synthesize.Synthesizer
	abbrevLength int
}

// NewOperation creates a new Operation. Commits are created through the synthesizer, which
// must write into repo.
func NewOperation(repo *repository.Repository, synthesizer *synthesize.Synthesizer, abbrevLength int) *Operation {
	return &Operation{
		repo:         repo,
		synthesizer:  synthesizer,
		abbrevLength: abbrevLength,
	}
}

// pending is a commit that is ready to be written.
type pending struct {
	// tree is the tree to commit. The index's tree is used if it is empty.
	tree          git.ObjectID
	parents       []git.ObjectID
	message       string
	reflogMessage string
	warnings      []string
}

// Save commits the changes in the working directory. Staged changes are persisted to the index
// only after all checks have passed. On failure the repository handle's in-memory index may
// still hold staged changes, so the handle should be closed.
func (o *Operation) Save(req Request) (Result, error) {
	marker, err := o.repo.Marker()
	if err != nil {
		return Result{}, err
	}

	head, err := o.repo.Head()
	if err != nil {
		return Result{}, err
	}

	if marker.State != git.StateIdle {
		if len(req.Paths) > 0 {
			return Result{}, errors.NewRepositoryStateError("cannot save selected paths: %s", marker.State)
		}
		if head.Unborn {
			return Result{}, errors.NewRepositoryStateError("%s on an unborn branch", marker.State)
		}
	} else if strings.TrimSpace(req.Message) == "" {
		return Result{}, ErrMissingMessage
	}

	index, err := o.repo.Index()
	if err != nil {
		return Result{}, err
	}
	defer index.Free()

	var commit pending
	switch marker.State {
	case git.StateMergeInProgress:
		commit, err = o.finalizeMerge(index, head, marker, req.Message)
	case git.StateRevertInProgress:
		commit, err = o.finalizeRevert(index, head, marker, req.Message)
	default:
		commit, err = o.stage(index, head, req)
	}
	if err != nil {
		return Result{}, err
	}

	tree := commit.tree
	if tree == "" {
		if tree, err = index.WriteTree(); err != nil {
			return Result{}, err
		}
	}

	if err := o.requireChanges(head, marker.State, tree); err != nil {
		return Result{}, err
	}

	if err := index.Write(); err != nil {
		return Result{}, err
	}

	commitID, err := o.synthesizer.Commit(head.Target, commit.parents, tree, commit.message, commit.reflogMessage)
	if err != nil {
		return Result{}, fmt.Errorf("save: %w", err)
	}

	return Result{
		CommitID:       commitID,
		ShortID:        commitID.Abbreviate(o.abbrevLength),
		Branch:         head.Branch,
		IsMergeCommit:  marker.State == git.StateMergeInProgress,
		IsRevertCommit: marker.State == git.StateRevertInProgress,
		Warnings:       commit.warnings,
	}, nil
}

// stage stages the changes of an ordinary save. With an include-list, the commit records HEAD's
// tree plus the listed paths only, while changes staged earlier for other paths stay staged.
func (o *Operation) stage(index *repository.Index, head repository.Head, req Request) (pending, error) {
	var (
		warnings []string
		tree     git.ObjectID
	)
	if len(req.Paths) > 0 {
		var err error
		if warnings, err = index.AddPaths(req.Paths); err != nil {
			return pending{}, err
		}

		var base git.ObjectID
		if !head.Unborn {
			headCommit, err := o.repo.LookupCommit(head.Target)
			if err != nil {
				return pending{}, fmt.Errorf("reading HEAD: %w", err)
			}
			base = headCommit.TreeID
		}

		if tree, err = index.TreeWithPaths(base, req.Paths); err != nil {
			return pending{}, err
		}
	} else if err := index.AddAll(); err != nil {
		return pending{}, err
	}

	if head.Unborn {
		return pending{
			tree:          tree,
			message:       req.Message,
			reflogMessage: "commit (initial): " + subject(req.Message),
			warnings:      warnings,
		}, nil
	}

	return pending{
		tree:          tree,
		parents:       []git.ObjectID{head.Target},
		message:       req.Message,
		reflogMessage: "commit: " + subject(req.Message),
		warnings:      warnings,
	}, nil
}

func (o *Operation) finalizeMerge(index *repository.Index, head repository.Head, marker git.TransientMarker, message string) (pending, error) {
	if err := o.stageResolved(index, "merge"); err != nil {
		return pending{}, err
	}

	switch {
	case strings.TrimSpace(message) != "":
	case strings.TrimSpace(marker.Message) != "":
		message = marker.Message
	default:
		message = fmt.Sprintf("Merge commit '%s'\n", marker.Heads[0].Abbreviate(o.abbrevLength))
	}

	return pending{
		parents:       append([]git.ObjectID{head.Target}, marker.Heads...),
		message:       message,
		reflogMessage: "commit (merge): " + subject(message),
	}, nil
}

func (o *Operation) finalizeRevert(index *repository.Index, head repository.Head, marker git.TransientMarker, message string) (pending, error) {
	reverted, err := o.repo.LookupCommit(marker.Heads[0])
	if err != nil {
		return pending{}, fmt.Errorf("reading reverted commit: %w", err)
	}

	if err := o.stageResolved(index, "revert"); err != nil {
		return pending{}, err
	}

	revertMessage := synthesize.RevertMessage(reverted)
	if strings.TrimSpace(message) != "" {
		revertMessage += "\n" + message
	}

	return pending{
		parents:       []git.ObjectID{head.Target},
		message:       revertMessage,
		reflogMessage: "revert: " + subject(revertMessage),
	}, nil
}

// stageResolved stages every change and verifies that all paths which have been in conflict
// have been resolved. A path counts as unresolved while its file still contains conflict
// markers.
func (o *Operation) stageResolved(index *repository.Index, operation string) error {
	conflicts, err := index.Conflicts()
	if err != nil {
		return err
	}
	conflicted := conflicts.Paths()

	if err := index.AddAll(); err != nil {
		return err
	}

	for _, path := range conflicted {
		if err := index.StagePath(path); err != nil {
			return err
		}
	}

	remaining, err := index.Conflicts()
	if err != nil {
		return err
	}
	unresolved := remaining.Paths()

	for _, path := range conflicted {
		hasMarkers, err := o.hasMarkers(path)
		if err != nil {
			return err
		}
		if hasMarkers {
			unresolved = append(unresolved, path)
		}
	}

	if len(unresolved) > 0 {
		return errors.MergeConflictError{
			Operation: operation,
			Paths:     conflict.MergePaths(unresolved),
		}
	}

	return nil
}

func (o *Operation) hasMarkers(path string) (bool, error) {
	file, err := os.Open(filepath.Join(o.repo.WorkDir(), path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking %q for conflict markers: %w", path, err)
	}
	defer file.Close()

	hasMarkers, err := conflict.ReadMarkers(file)
	if err != nil {
		return false, fmt.Errorf("checking %q for conflict markers: %w", path, err)
	}

	return hasMarkers, nil
}

// requireChanges returns ErrNoChangesToSave if the staged tree would record nothing new. Merges
// may legitimately record the tree of HEAD.
func (o *Operation) requireChanges(head repository.Head, state git.OperationState, tree git.ObjectID) error {
	if head.Unborn {
		if tree == git.ObjectHashSHA1.EmptyTreeOID {
			return errors.ErrNoChangesToSave
		}
		return nil
	}

	if state == git.StateMergeInProgress {
		return nil
	}

	headCommit, err := o.repo.LookupCommit(head.Target)
	if err != nil {
		return fmt.Errorf("reading HEAD: %w", err)
	}

	if headCommit.TreeID == tree {
		return errors.ErrNoChangesToSave
	}

	return nil
}

func subject(message string) string {
	return git.Commit{Message: message}.Subject()
}
