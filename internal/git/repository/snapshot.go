package repository

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
	"gitlab.com/folio-vcs/folio/internal/git"
)

// Snapshot records the commit HEAD points to and writes the index into a tree so that both can
// be restored later on. It fails if the index holds conflicts.
func (r *Repository) Snapshot() (git.Snapshot, error) {
	head, err := r.Head()
	if err != nil {
		return git.Snapshot{}, err
	}

	index, err := r.repo.Index()
	if err != nil {
		return git.Snapshot{}, fmt.Errorf("open index: %w", err)
	}
	defer index.Free()

	treeOID, err := index.WriteTree()
	if err != nil {
		return git.Snapshot{}, fmt.Errorf("write index tree: %w", err)
	}

	return git.Snapshot{
		Head:      head.Target,
		IndexTree: git.ObjectID(treeOID.String()),
	}, nil
}

// Restore hard-resets HEAD and the working directory to the snapshot's commit and then replaces
// the index with the snapshot's tree.
func (r *Repository) Restore(snapshot git.Snapshot) error {
	checkoutOpts := &git2go.CheckoutOptions{Strategy: git2go.CheckoutForce}

	if snapshot.Head != "" {
		commit, err := r.lookupCommit(snapshot.Head)
		if err != nil {
			return fmt.Errorf("restore HEAD: %w", err)
		}
		defer commit.Free()

		if err := r.repo.ResetToCommit(commit, git2go.ResetHard, checkoutOpts); err != nil {
			return fmt.Errorf("reset to %q: %w", snapshot.Head, err)
		}
	} else if err := r.unbornHead(); err != nil {
		return err
	}

	tree, err := r.lookupTree(snapshot.IndexTree)
	if err != nil {
		return fmt.Errorf("restore index: %w", err)
	}
	defer tree.Free()

	index, err := r.repo.Index()
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer index.Free()

	if err := index.ReadTree(tree); err != nil {
		return fmt.Errorf("read tree into index: %w", err)
	}

	if err := index.Write(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if snapshot.Head == "" {
		if err := r.repo.CheckoutIndex(index, checkoutOpts); err != nil {
			return fmt.Errorf("checkout index: %w", err)
		}
	}

	return nil
}

// unbornHead deletes the branch HEAD points to in case it has been created since the snapshot
// was taken.
func (r *Repository) unbornHead() error {
	head, err := r.Head()
	if err != nil {
		return err
	}

	if head.Unborn {
		return nil
	}

	if head.Detached {
		return fmt.Errorf("cannot restore unborn HEAD: HEAD is detached")
	}

	ref, err := r.repo.References.Lookup("refs/heads/" + head.Branch)
	if err != nil {
		return fmt.Errorf("lookup branch %q: %w", head.Branch, err)
	}
	defer ref.Free()

	if err := ref.Delete(); err != nil {
		return fmt.Errorf("delete branch %q: %w", head.Branch, err)
	}

	return nil
}
