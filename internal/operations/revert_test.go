package operations

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gitlab.com/folio-vcs/folio/internal/errors"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/gittest"
	"gitlab.com/folio-vcs/folio/internal/git/synthesize"
	"gitlab.com/folio-vcs/folio/internal/testhelper"
)

func TestRevert(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	setup := setupService(t)
	repoPath, _, c2 := setupHistory(t)

	response, err := setup.service.Revert(ctx, RevertRequest{
		RepositoryPath: repoPath,
		Revision:       "HEAD",
	})
	require.NoError(t, err)
	require.Equal(t, "Reverted commit "+c2.Abbreviate(8), response.Message)

	commit := gittest.ReadCommit(t, repoPath, "HEAD")
	require.Equal(t, response.CommitID, commit.ID)
	require.Equal(t, []git.ObjectID{c2}, commit.ParentIDs)
	require.Equal(t, synthesize.RevertMessage(gittest.ReadCommit(t, repoPath, c2.String())), commit.Message)
	requireSignature(t, operator, commit.Author)
	requireSignature(t, operator, commit.Committer)

	require.Equal(t, map[string]string{"file_a.txt": "A1"}, gittest.ReadTreeFiles(t, repoPath, "HEAD"))
	require.Equal(t, "A1", gittest.ReadFile(t, repoPath, "file_a.txt"))
	require.False(t, gittest.FileExists(t, repoPath, "file_b.txt"))
	require.Equal(t, commit.TreeID, gittest.IndexTree(t, repoPath))

	require.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.operationsTotal.WithLabelValues("revert", "success")))
	require.Equal(t, 0.0, testutil.ToFloat64(setup.metrics.rollbacksTotal.WithLabelValues("revert")))
}

func TestRevert_rootCommit(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	setup := setupService(t)
	repoPath, c1, _ := setupHistory(t)

	gittest.WriteFiles(t, repoPath, map[string]string{"file_c.txt": "C1"})
	gittest.CommitAll(t, repoPath, gittest.WithMessage("C3"))

	// Reverting the root commit removes file_a.txt. Since C2 modified it afterwards, this
	// conflicts.
	_, err := setup.service.Revert(ctx, RevertRequest{RepositoryPath: repoPath, Revision: c1.Revision()})
	require.Equal(t, errors.MergeConflictError{Operation: "revert", Paths: []string{"file_a.txt"}}, err)

	repoPath = gittest.InitRepo(t)
	gittest.WriteFiles(t, repoPath, map[string]string{"a.txt": "a"})
	root := gittest.CommitAll(t, repoPath, gittest.WithMessage("root"))
	gittest.WriteFiles(t, repoPath, map[string]string{"b.txt": "b"})
	second := gittest.CommitAll(t, repoPath, gittest.WithMessage("second"))

	response, err := setup.service.Revert(ctx, RevertRequest{RepositoryPath: repoPath, Revision: root.Revision()})
	require.NoError(t, err)

	commit := gittest.ReadCommit(t, repoPath, "HEAD")
	require.Equal(t, response.CommitID, commit.ID)
	require.Equal(t, []git.ObjectID{second}, commit.ParentIDs)
	require.Equal(t, map[string]string{"b.txt": "b"}, gittest.ReadTreeFiles(t, repoPath, "HEAD"))
	require.False(t, gittest.FileExists(t, repoPath, "a.txt"))
}

func TestRevert_conflict(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	setup := setupService(t)

	repoPath := gittest.InitRepo(t)
	gittest.WriteFiles(t, repoPath, map[string]string{"file_a.txt": "A1"})
	gittest.CommitAll(t, repoPath, gittest.WithMessage("C0"))
	gittest.WriteFiles(t, repoPath, map[string]string{"file_c.txt": "one\n"})
	c1 := gittest.CommitAll(t, repoPath, gittest.WithMessage("C1"))
	gittest.WriteFiles(t, repoPath, map[string]string{"file_c.txt": "two\n"})
	gittest.CommitAll(t, repoPath, gittest.WithMessage("C2"))

	// Untracked files survive the rollback as well.
	gittest.WriteFiles(t, repoPath, map[string]string{"notes.txt": "untracked"})
	before := gittest.ReadRepositoryState(t, repoPath)

	_, err := setup.service.Revert(ctx, RevertRequest{RepositoryPath: repoPath, Revision: c1.Revision()})
	require.Equal(t, errors.MergeConflictError{Operation: "revert", Paths: []string{"file_c.txt"}}, err)

	gittest.RequireRepositoryState(t, repoPath, before)
	require.False(t, gittest.MarkerExists(t, repoPath, "REVERT_HEAD"))

	require.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.operationsTotal.WithLabelValues("revert", "conflict")))
	require.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.rollbacksTotal.WithLabelValues("revert")))
	require.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.conflictingPathsTotal.WithLabelValues("revert")))
}

func TestRevert_emptyChange(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	setup := setupService(t)
	repoPath, _, c2 := setupHistory(t)

	gittest.WriteFiles(t, repoPath, map[string]string{"file_a.txt": "A1"})
	gittest.RemoveFiles(t, repoPath, "file_b.txt")
	gittest.CommitAll(t, repoPath, gittest.WithMessage("Undo C2 by hand"))
	before := gittest.ReadRepositoryState(t, repoPath)

	_, err := setup.service.Revert(ctx, RevertRequest{RepositoryPath: repoPath, Revision: c2.Revision()})
	require.ErrorIs(t, err, errors.ErrEmptyChange)
	require.EqualError(t, err, "revert: could not apply because the result was empty")

	gittest.RequireRepositoryState(t, repoPath, before)
	require.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.operationsTotal.WithLabelValues("revert", "empty")))
}

func TestRevert_validation(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)

	for _, tc := range []struct {
		desc          string
		setup         func(t *testing.T) (string, git.Revision)
		expectedErr   error
		expectedState string
	}{
		{
			desc: "missing repository",
			setup: func(t *testing.T) (string, git.Revision) {
				return t.TempDir() + "/missing", "HEAD"
			},
			expectedErr:   errors.ErrRepositoryNotFound,
			expectedState: "not_found",
		},
		{
			desc: "empty repository path",
			setup: func(t *testing.T) (string, git.Revision) {
				return "", "HEAD"
			},
			expectedErr:   errors.ErrRepositoryNotFound,
			expectedState: "not_found",
		},
		{
			desc: "unknown revision",
			setup: func(t *testing.T) (string, git.Revision) {
				repoPath, _, _ := setupHistory(t)
				return repoPath, "does-not-exist"
			},
			expectedErr:   errors.CommitNotFoundError{Revision: "does-not-exist"},
			expectedState: "not_found",
		},
		{
			desc: "invalid revision",
			setup: func(t *testing.T) (string, git.Revision) {
				repoPath, _, _ := setupHistory(t)
				return repoPath, "--all"
			},
			expectedErr:   errors.CommitNotFoundError{Revision: "--all"},
			expectedState: "not_found",
		},
		{
			desc: "revision with spaces",
			setup: func(t *testing.T) (string, git.Revision) {
				repoPath, _, _ := setupHistory(t)
				return repoPath, "no such branch"
			},
			expectedErr:   errors.CommitNotFoundError{Revision: "no such branch"},
			expectedState: "not_found",
		},
		{
			desc: "modified worktree",
			setup: func(t *testing.T) (string, git.Revision) {
				repoPath, _, _ := setupHistory(t)
				gittest.WriteFiles(t, repoPath, map[string]string{"file_a.txt": "local change"})
				return repoPath, "HEAD"
			},
			expectedErr:   errors.NewRepositoryStateError("uncommitted changes in file_a.txt"),
			expectedState: "invalid",
		},
		{
			desc: "merge in progress",
			setup: func(t *testing.T) (string, git.Revision) {
				repoPath, c1, _ := setupHistory(t)
				gittest.WriteMarker(t, repoPath, "MERGE_HEAD", c1.String()+"\n")
				return repoPath, "HEAD"
			},
			expectedErr:   errors.NewRepositoryStateError("merge in progress"),
			expectedState: "invalid",
		},
		{
			desc: "unborn HEAD",
			setup: func(t *testing.T) (string, git.Revision) {
				repoPath := gittest.InitRepo(t)
				commitID := gittest.WriteCommit(t, repoPath, gittest.WithTreeEntries(
					gittest.TreeEntry{Path: "a.txt", Content: "a"},
				))
				return repoPath, commitID.Revision()
			},
			expectedErr:   errors.NewRepositoryStateError(`branch "main" has no commits yet`),
			expectedState: "invalid",
		},
	} {
		tc := tc

		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			setup := setupService(t)
			repoPath, revision := tc.setup(t)

			var before gittest.RepositoryState
			if gittest.FileExists(t, repoPath, ".git") {
				before = gittest.ReadRepositoryState(t, repoPath)
			}

			_, err := setup.service.Revert(ctx, RevertRequest{RepositoryPath: repoPath, Revision: revision})
			switch {
			case tc.expectedErr == errors.ErrRepositoryNotFound:
				require.ErrorIs(t, err, tc.expectedErr)
			default:
				require.Equal(t, tc.expectedErr, err)
			}

			if gittest.FileExists(t, repoPath, ".git") {
				gittest.RequireRepositoryState(t, repoPath, before)
			}
			require.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.operationsTotal.WithLabelValues("revert", tc.expectedState)))
			require.Equal(t, 0.0, testutil.ToFloat64(setup.metrics.rollbacksTotal.WithLabelValues("revert")))
		})
	}
}
