package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/conflict"
	"gitlab.com/folio-vcs/folio/internal/git/gittest"
)

func TestIndex_AddPaths(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		desc             string
		files            map[string]string
		remove           []string
		paths            func(repoPath string) []string
		expectedFiles    map[string]string
		expectedWarnings []string
	}{
		{
			desc:  "single file",
			files: map[string]string{"new": "new", "other": "other"},
			paths: func(string) []string {
				return []string{"new"}
			},
			expectedFiles: map[string]string{".gitignore": "*.log\n", "tracked": "tracked", "new": "new"},
		},
		{
			desc:  "directory is expanded and ignored files are skipped",
			files: map[string]string{"dir/a": "a", "dir/sub/b": "b", "dir/debug.log": "log", "outside": "outside"},
			paths: func(string) []string {
				return []string{"dir"}
			},
			expectedFiles: map[string]string{".gitignore": "*.log\n", "tracked": "tracked", "dir/a": "a", "dir/sub/b": "b"},
		},
		{
			desc:   "deleted tracked file",
			remove: []string{"tracked"},
			paths: func(string) []string {
				return []string{"tracked"}
			},
			expectedFiles: map[string]string{".gitignore": "*.log\n"},
		},
		{
			desc:  "absolute path",
			files: map[string]string{"new": "new"},
			paths: func(repoPath string) []string {
				return []string{filepath.Join(repoPath, "new")}
			},
			expectedFiles: map[string]string{".gitignore": "*.log\n", "tracked": "tracked", "new": "new"},
		},
		{
			desc:  "skipped paths",
			files: map[string]string{"debug.log": "log"},
			paths: func(string) []string {
				return []string{"missing", "debug.log", "../escape", ".git/config"}
			},
			expectedFiles: map[string]string{".gitignore": "*.log\n", "tracked": "tracked"},
			expectedWarnings: []string{
				"missing: does not exist",
				"debug.log: ignored",
				"../escape: outside of the repository",
				".git/config: outside of the repository",
			},
		},
	} {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			repoPath, repo := setupRepository(t, map[string]string{".gitignore": "*.log\n", "tracked": "tracked"})
			gittest.WriteFiles(t, repoPath, tc.files)
			gittest.RemoveFiles(t, repoPath, tc.remove...)

			index, err := repo.Index()
			require.NoError(t, err)
			defer index.Free()

			warnings, err := index.AddPaths(tc.paths(repoPath))
			require.NoError(t, err)
			require.Equal(t, tc.expectedWarnings, warnings)

			treeID, err := index.WriteTree()
			require.NoError(t, err)

			commitID := gittest.WriteCommit(t, repoPath, gittest.WithTreeEntries(treeEntries(tc.expectedFiles)...))
			require.Equal(t, gittest.ReadCommit(t, repoPath, commitID.String()).TreeID, treeID)
		})
	}
}

func TestIndex_inMemoryUntilWritten(t *testing.T) {
	t.Parallel()

	repoPath, repo := setupRepository(t, map[string]string{"a": "a"})
	indexTree := gittest.IndexTree(t, repoPath)

	gittest.WriteFiles(t, repoPath, map[string]string{"b": "b"})

	index, err := repo.Index()
	require.NoError(t, err)
	require.NoError(t, index.AddAll())
	require.EqualValues(t, 2, index.EntryCount())
	index.Free()

	require.Equal(t, indexTree, gittest.IndexTree(t, repoPath))

	index, err = repo.Index()
	require.NoError(t, err)
	defer index.Free()
	require.NoError(t, index.AddAll())
	require.NoError(t, index.Write())

	require.NotEqual(t, indexTree, gittest.IndexTree(t, repoPath))
}

func TestIndex_conflicts(t *testing.T) {
	t.Parallel()

	repoPath, repo := setupRepository(t, map[string]string{"a": "base\n", "b": "b\n"})
	base := gittest.Head(t, repoPath)

	gittest.WriteFiles(t, repoPath, map[string]string{"a": "ours\n"})
	gittest.CommitAll(t, repoPath)

	theirs := gittest.WriteCommit(t, repoPath, gittest.WithParents(base), gittest.WithTreeEntries(
		gittest.TreeEntry{Path: "a", Content: "theirs\n"},
		gittest.TreeEntry{Path: "b", Content: "b\n"},
	))
	gittest.StartMerge(t, repoPath, theirs)

	index, err := repo.Index()
	require.NoError(t, err)
	defer index.Free()

	conflicts, err := index.Conflicts()
	require.NoError(t, err)
	require.Equal(t, conflict.Set{{Ancestor: "a", Ours: "a", Theirs: "a"}}, conflicts)
	require.True(t, conflict.HasMarkers([]byte(gittest.ReadFile(t, repoPath, "a"))))

	gittest.WriteFiles(t, repoPath, map[string]string{"a": "resolved\n"})
	require.NoError(t, index.StagePath("a"))

	conflicts, err = index.Conflicts()
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestIndex_StagePath_deleted(t *testing.T) {
	t.Parallel()

	repoPath, repo := setupRepository(t, map[string]string{"a": "a", "b": "b"})
	gittest.RemoveFiles(t, repoPath, "a")

	index, err := repo.Index()
	require.NoError(t, err)
	defer index.Free()

	require.NoError(t, index.StagePath("a"))
	require.EqualValues(t, 1, index.EntryCount())
}

func TestIndex_TreeWithPaths(t *testing.T) {
	t.Parallel()

	repoPath, repo := setupRepository(t, map[string]string{"a": "a\n", "dir/b": "b\n", "dir/c": "c\n"})
	headTree := gittest.ReadCommit(t, repoPath, "HEAD").TreeID

	gittest.WriteFiles(t, repoPath, map[string]string{"a": "a2\n", "dir/b": "b2\n", "dir/d": "d\n"})
	gittest.RemoveFiles(t, repoPath, "dir/c")

	index, err := repo.Index()
	require.NoError(t, err)
	defer index.Free()
	require.NoError(t, index.AddAll())

	expectedTree := func(files map[string]string) git.ObjectID {
		commitID := gittest.WriteCommit(t, repoPath, gittest.WithTreeEntries(treeEntries(files)...))
		return gittest.ReadCommit(t, repoPath, commitID.String()).TreeID
	}

	for _, tc := range []struct {
		desc          string
		base          git.ObjectID
		paths         []string
		expectedFiles map[string]string
	}{
		{
			desc:          "directory",
			base:          headTree,
			paths:         []string{"dir"},
			expectedFiles: map[string]string{"a": "a\n", "dir/b": "b2\n", "dir/d": "d\n"},
		},
		{
			desc:          "single file",
			base:          headTree,
			paths:         []string{"a"},
			expectedFiles: map[string]string{"a": "a2\n", "dir/b": "b\n", "dir/c": "c\n"},
		},
		{
			desc:          "working directory root",
			base:          headTree,
			paths:         []string{"."},
			expectedFiles: map[string]string{"a": "a2\n", "dir/b": "b2\n", "dir/d": "d\n"},
		},
		{
			desc:          "path outside of the repository",
			base:          headTree,
			paths:         []string{"../a"},
			expectedFiles: map[string]string{"a": "a\n", "dir/b": "b\n", "dir/c": "c\n"},
		},
		{
			desc:          "empty base",
			paths:         []string{"a"},
			expectedFiles: map[string]string{"a": "a2\n"},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			treeID, err := index.TreeWithPaths(tc.base, tc.paths)
			require.NoError(t, err)
			require.Equal(t, expectedTree(tc.expectedFiles), treeID)
		})
	}

	fullTree, err := index.WriteTree()
	require.NoError(t, err)
	require.Equal(t, expectedTree(map[string]string{"a": "a2\n", "dir/b": "b2\n", "dir/d": "d\n"}), fullTree)
}
