package gittest

import (
	"testing"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
	"gitlab.com/folio-vcs/folio/internal/git"
)

// StartMerge merges the given commit into HEAD the way an external merge tool would, without
// committing. The working directory and index are updated, conflicts are written into the
// affected files and MERGE_HEAD is left behind.
func StartMerge(tb testing.TB, repoPath string, other git.ObjectID) {
	tb.Helper()

	repo := OpenRepo(tb, repoPath)

	oid, err := git2go.NewOid(other.String())
	require.NoError(tb, err)

	annotated, err := repo.LookupAnnotatedCommit(oid)
	require.NoError(tb, err)
	defer annotated.Free()

	mergeOpts, err := git2go.DefaultMergeOptions()
	require.NoError(tb, err)

	require.NoError(tb, repo.Merge([]*git2go.AnnotatedCommit{annotated}, &mergeOpts, &git2go.CheckoutOptions{
		Strategy: git2go.CheckoutSafe | git2go.CheckoutAllowConflicts,
	}))
}

// StartRevert reverts the given commit the way an external revert tool would, without
// committing. REVERT_HEAD is left behind.
func StartRevert(tb testing.TB, repoPath string, commitID git.ObjectID) {
	tb.Helper()

	repo := OpenRepo(tb, repoPath)

	oid, err := git2go.NewOid(commitID.String())
	require.NoError(tb, err)

	commit, err := repo.LookupCommit(oid)
	require.NoError(tb, err)
	defer commit.Free()

	revertOpts, err := git2go.DefaultRevertOptions()
	require.NoError(tb, err)
	revertOpts.CheckoutOpts.Strategy = git2go.CheckoutSafe | git2go.CheckoutAllowConflicts

	require.NoError(tb, repo.Revert(commit, &revertOpts))
}
