package repository

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
	"gitlab.com/folio-vcs/folio/internal/errors"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/conflict"
)

const (
	mergeHeadFile  = "MERGE_HEAD"
	mergeMsgFile   = "MERGE_MSG"
	revertHeadFile = "REVERT_HEAD"
)

// Marker reads the transient operation marker left behind by an interrupted merge or revert.
// Other in-progress operations, like a rebase, cannot be finalized and result in a
// RepositoryStateError.
func (r *Repository) Marker() (git.TransientMarker, error) {
	switch state := r.repo.State(); state {
	case git2go.RepositoryStateNone:
		return git.TransientMarker{State: git.StateIdle}, nil
	case git2go.RepositoryStateMerge:
		heads, err := r.readMarkerHeads(mergeHeadFile)
		if err != nil {
			return git.TransientMarker{}, err
		}

		message, err := r.readMarkerFile(mergeMsgFile)
		if err != nil && !os.IsNotExist(err) {
			return git.TransientMarker{}, fmt.Errorf("reading %s: %w", mergeMsgFile, err)
		}

		return git.TransientMarker{
			State:   git.StateMergeInProgress,
			Heads:   heads,
			Message: string(message),
		}, nil
	case git2go.RepositoryStateRevert, git2go.RepositoryStateRevertSequence:
		heads, err := r.readMarkerHeads(revertHeadFile)
		if err != nil {
			return git.TransientMarker{}, err
		}

		return git.TransientMarker{
			State: git.StateRevertInProgress,
			Heads: heads,
		}, nil
	default:
		return git.TransientMarker{}, errors.NewRepositoryStateError("unsupported operation in progress (state %d)", state)
	}
}

// ClearMarker removes all transient operation state. Clearing a repository without such state is
// a no-op.
func (r *Repository) ClearMarker() error {
	if err := r.repo.StateCleanup(); err != nil {
		return fmt.Errorf("state cleanup: %w", err)
	}
	return nil
}

// RequireCleanWorktree returns a RepositoryStateError if tracked files have staged or unstaged
// modifications, or if the index holds conflicts. Untracked files are not considered.
func (r *Repository) RequireCleanWorktree() error {
	statusList, err := r.repo.StatusList(&git2go.StatusOptions{
		Show:  git2go.StatusShowIndexAndWorkdir,
		Flags: git2go.StatusOptExcludeSubmodules,
	})
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	defer statusList.Free()

	count, err := statusList.EntryCount()
	if err != nil {
		return fmt.Errorf("status entry count: %w", err)
	}

	var dirty []string
	for i := 0; i < count; i++ {
		entry, err := statusList.ByIndex(i)
		if err != nil {
			return fmt.Errorf("status entry: %w", err)
		}

		if entry.Status&^(git2go.StatusWtNew|git2go.StatusIgnored) == 0 {
			continue
		}

		path := entry.IndexToWorkdir.NewFile.Path
		if path == "" {
			path = entry.HeadToIndex.NewFile.Path
		}
		dirty = append(dirty, path)
	}

	if len(dirty) > 0 {
		return errors.NewRepositoryStateError("uncommitted changes in %s", strings.Join(conflict.MergePaths(dirty), ", "))
	}

	return nil
}

// requireNoUntrackedOverwrite returns a RepositoryStateError if checking out tree would replace
// untracked, non-ignored files in the working directory.
func (r *Repository) requireNoUntrackedOverwrite(tree *git2go.Tree) error {
	statusList, err := r.repo.StatusList(&git2go.StatusOptions{
		Show:  git2go.StatusShowWorkdirOnly,
		Flags: git2go.StatusOptIncludeUntracked | git2go.StatusOptRecurseUntrackedDirs | git2go.StatusOptExcludeSubmodules,
	})
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	defer statusList.Free()

	count, err := statusList.EntryCount()
	if err != nil {
		return fmt.Errorf("status entry count: %w", err)
	}

	var overwritten []string
	for i := 0; i < count; i++ {
		entry, err := statusList.ByIndex(i)
		if err != nil {
			return fmt.Errorf("status entry: %w", err)
		}

		if entry.Status&git2go.StatusWtNew == 0 {
			continue
		}

		path := entry.IndexToWorkdir.NewFile.Path
		occupied, err := treeOccupies(tree, path)
		if err != nil {
			return err
		}
		if occupied {
			overwritten = append(overwritten, path)
		}
	}

	if len(overwritten) > 0 {
		return errors.NewRepositoryStateError("untracked files would be overwritten: %s", strings.Join(conflict.MergePaths(overwritten), ", "))
	}

	return nil
}

// treeOccupies reports whether tree has an entry at path, or a non-directory entry at one of its
// parent directories.
func treeOccupies(tree *git2go.Tree, path string) (bool, error) {
	for prefix := path; ; {
		entry, err := tree.EntryByPath(prefix)
		if err == nil {
			return prefix == path || entry.Type != git2go.ObjectTree, nil
		}
		if !git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return false, fmt.Errorf("tree entry %q: %w", prefix, err)
		}

		slash := strings.LastIndexByte(prefix, '/')
		if slash < 0 {
			return false, nil
		}
		prefix = prefix[:slash]
	}
}

func (r *Repository) readMarkerFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(r.repo.Path(), name))
}

func (r *Repository) readMarkerHeads(name string) ([]git.ObjectID, error) {
	content, err := r.readMarkerFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	var heads []git.ObjectID
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		oid, err := git.ObjectHashSHA1.FromHex(line)
		if err != nil {
			return nil, errors.NewRepositoryStateError("%s contains invalid object ID %q", name, line)
		}
		heads = append(heads, oid)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", name, err)
	}

	if len(heads) == 0 {
		return nil, errors.NewRepositoryStateError("%s is empty", name)
	}

	return heads, nil
}
