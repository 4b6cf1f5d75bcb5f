package repository

import (
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/conflict"
)

// EmptyTree writes the empty tree into the object database and returns its ID.
func (r *Repository) EmptyTree() (git.ObjectID, error) {
	builder, err := r.repo.TreeBuilder()
	if err != nil {
		return "", fmt.Errorf("tree builder: %w", err)
	}
	defer builder.Free()

	treeOID, err := builder.Write()
	if err != nil {
		return "", fmt.Errorf("write empty tree: %w", err)
	}

	return git.ObjectID(treeOID.String()), nil
}

// MergeTrees performs a three-way merge of the given trees. An empty ancestor merges without a
// common base. On success the merged tree is written into the object database and returned. If
// the merge resulted in conflicts, no tree is written and the conflicts are returned instead.
func (r *Repository) MergeTrees(ancestor, ours, theirs git.ObjectID) (git.ObjectID, conflict.Set, error) {
	var ancestorTree *git2go.Tree
	if ancestor != "" {
		var err error
		ancestorTree, err = r.lookupTree(ancestor)
		if err != nil {
			return "", nil, fmt.Errorf("ancestor: %w", err)
		}
		defer ancestorTree.Free()
	}

	oursTree, err := r.lookupTree(ours)
	if err != nil {
		return "", nil, fmt.Errorf("ours: %w", err)
	}
	defer oursTree.Free()

	theirsTree, err := r.lookupTree(theirs)
	if err != nil {
		return "", nil, fmt.Errorf("theirs: %w", err)
	}
	defer theirsTree.Free()

	mergeOpts, err := git2go.DefaultMergeOptions()
	if err != nil {
		return "", nil, fmt.Errorf("default merge options: %w", err)
	}

	index, err := r.repo.MergeTrees(ancestorTree, oursTree, theirsTree, &mergeOpts)
	if err != nil {
		return "", nil, fmt.Errorf("merge trees: %w", err)
	}
	defer index.Free()

	if index.HasConflicts() {
		conflicts, err := readConflicts(index)
		if err != nil {
			return "", nil, fmt.Errorf("reading conflicts: %w", err)
		}
		return "", conflicts, nil
	}

	treeOID, err := index.WriteTreeTo(r.repo)
	if err != nil {
		return "", nil, fmt.Errorf("write tree: %w", err)
	}

	return git.ObjectID(treeOID.String()), nil, nil
}

// StageTree replaces the index with the given tree and forces the working directory to match it.
// A RepositoryStateError is returned without touching the index if the tree would overwrite an
// untracked file.
func (r *Repository) StageTree(treeID git.ObjectID) error {
	tree, err := r.lookupTree(treeID)
	if err != nil {
		return err
	}
	defer tree.Free()

	if err := r.requireNoUntrackedOverwrite(tree); err != nil {
		return err
	}

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

	if err := r.repo.CheckoutTree(tree, &git2go.CheckoutOptions{
		Strategy: git2go.CheckoutForce,
	}); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	return nil
}

func (r *Repository) lookupTree(treeID git.ObjectID) (*git2go.Tree, error) {
	oid, err := toOid(treeID)
	if err != nil {
		return nil, err
	}

	tree, err := r.repo.LookupTree(oid)
	if err != nil {
		return nil, fmt.Errorf("lookup tree %q: %w", treeID, err)
	}

	return tree, nil
}

func readConflicts(index *git2go.Index) (conflict.Set, error) {
	iterator, err := index.ConflictIterator()
	if err != nil {
		return nil, err
	}
	defer iterator.Free()

	var conflicts conflict.Set
	for {
		indexConflict, err := iterator.Next()
		if err != nil {
			if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
				break
			}
			return nil, err
		}

		entry := conflict.Entry{}
		if indexConflict.Ancestor != nil {
			entry.Ancestor = indexConflict.Ancestor.Path
		}
		if indexConflict.Our != nil {
			entry.Ours = indexConflict.Our.Path
		}
		if indexConflict.Their != nil {
			entry.Theirs = indexConflict.Their.Path
		}

		if entry.IsEmpty() {
			return nil, errors.New("invalid conflict")
		}

		conflicts = append(conflicts, entry)
	}

	return conflicts, nil
}
