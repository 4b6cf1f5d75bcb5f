// Package gittest provides helpers to set up real repositories for tests.
package gittest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/testhelper"
)

// DefaultBranch is the branch HEAD points to in repositories created by InitRepo.
const DefaultBranch = "main"

// IsolateConfig tells libgit2 to ignore any system, XDG or global configuration files so that
// tests behave the same on every machine. It is meant to be passed to testhelper.WithSetup.
func IsolateConfig() error {
	for _, configLevel := range []git2go.ConfigLevel{
		git2go.ConfigLevelSystem,
		git2go.ConfigLevelXDG,
		git2go.ConfigLevelGlobal,
	} {
		if err := git2go.SetSearchPath(configLevel, "/dev/null"); err != nil {
			return fmt.Errorf("setting Git2go search path: %w", err)
		}
	}

	return nil
}

// InitRepo creates a new non-bare repository in a temporary directory and returns its path. HEAD
// points to the unborn DefaultBranch and the repository is configured with the default committer
// identity.
func InitRepo(tb testing.TB) string {
	tb.Helper()

	repoPath := tb.TempDir()

	repo, err := git2go.InitRepository(repoPath, false)
	require.NoError(tb, err)
	defer repo.Free()

	_, err = repo.References.CreateSymbolic("HEAD", "refs/heads/"+DefaultBranch, true, "")
	require.NoError(tb, err)

	config, err := repo.Config()
	require.NoError(tb, err)
	defer config.Free()

	require.NoError(tb, config.SetString("user.name", DefaultCommitterName))
	require.NoError(tb, config.SetString("user.email", DefaultCommitterMail))

	return repoPath
}

// OpenRepo opens the repository at the given path with libgit2. The repository is freed when the
// test finishes.
func OpenRepo(tb testing.TB, repoPath string) *git2go.Repository {
	tb.Helper()

	repo, err := git2go.OpenRepository(repoPath)
	require.NoError(tb, err)
	tb.Cleanup(repo.Free)

	return repo
}

// WriteFiles writes the given files into the working directory of the repository.
func WriteFiles(tb testing.TB, repoPath string, files map[string]string) {
	tb.Helper()

	converted := make(map[string]any, len(files))
	for name, content := range files {
		converted[name] = content
	}

	testhelper.WriteFiles(tb, repoPath, converted)
}

// RemoveFiles deletes the given files from the working directory of the repository.
func RemoveFiles(tb testing.TB, repoPath string, names ...string) {
	tb.Helper()

	for _, name := range names {
		require.NoError(tb, os.Remove(filepath.Join(repoPath, name)))
	}
}

// ReadFile returns the contents of a file in the working directory of the repository.
func ReadFile(tb testing.TB, repoPath, name string) string {
	tb.Helper()
	return string(testhelper.MustReadFile(tb, filepath.Join(repoPath, name)))
}

// FileExists determines whether the given file exists in the working directory.
func FileExists(tb testing.TB, repoPath, name string) bool {
	tb.Helper()

	_, err := os.Stat(filepath.Join(repoPath, name))
	if os.IsNotExist(err) {
		return false
	}
	require.NoError(tb, err)

	return true
}

// WriteMarker writes a file into the repository's git directory. This is how transient state like
// MERGE_HEAD or REVERT_HEAD is left behind by an interrupted merge or revert.
func WriteMarker(tb testing.TB, repoPath, name, content string) {
	tb.Helper()
	require.NoError(tb, os.WriteFile(filepath.Join(repoPath, ".git", name), []byte(content), 0o644))
}

// MarkerExists determines whether the given file exists in the repository's git directory.
func MarkerExists(tb testing.TB, repoPath, name string) bool {
	tb.Helper()

	_, err := os.Stat(filepath.Join(repoPath, ".git", name))
	if os.IsNotExist(err) {
		return false
	}
	require.NoError(tb, err)

	return true
}

// ResolveRevision resolves the revision to a commit ID.
func ResolveRevision(tb testing.TB, repoPath, revision string) git.ObjectID {
	tb.Helper()

	repo := OpenRepo(tb, repoPath)

	object, err := repo.RevparseSingle(revision)
	require.NoError(tb, err)
	defer object.Free()

	peeled, err := object.Peel(git2go.ObjectCommit)
	require.NoError(tb, err)
	defer peeled.Free()

	return git.ObjectID(peeled.Id().String())
}

// Head returns the commit HEAD points to, or an empty object ID if HEAD is unborn.
func Head(tb testing.TB, repoPath string) git.ObjectID {
	tb.Helper()

	repo := OpenRepo(tb, repoPath)

	unborn, err := repo.IsHeadUnborn()
	require.NoError(tb, err)
	if unborn {
		return ""
	}

	head, err := repo.Head()
	require.NoError(tb, err)
	defer head.Free()

	return git.ObjectID(head.Target().String())
}

// IndexTree writes the repository's index into a tree and returns its ID.
func IndexTree(tb testing.TB, repoPath string) git.ObjectID {
	tb.Helper()

	repo := OpenRepo(tb, repoPath)

	index, err := repo.Index()
	require.NoError(tb, err)
	defer index.Free()

	treeID, err := index.WriteTree()
	require.NoError(tb, err)

	return git.ObjectID(treeID.String())
}

// StageFiles adds the working directory state of the given files to the repository's index.
func StageFiles(tb testing.TB, repoPath string, paths ...string) {
	tb.Helper()

	index, err := OpenRepo(tb, repoPath).Index()
	require.NoError(tb, err)
	defer index.Free()

	for _, path := range paths {
		require.NoError(tb, index.AddByPath(path))
	}
	require.NoError(tb, index.Write())
}

// ReadIndexFile returns the content staged in the repository's index for path.
func ReadIndexFile(tb testing.TB, repoPath, path string) string {
	tb.Helper()

	repo := OpenRepo(tb, repoPath)

	index, err := repo.Index()
	require.NoError(tb, err)
	defer index.Free()

	entry, err := index.EntryByPath(path, 0)
	require.NoError(tb, err)

	blob, err := repo.LookupBlob(entry.Id)
	require.NoError(tb, err)
	defer blob.Free()

	return string(blob.Contents())
}

// RepositoryState captures HEAD, index and working directory of a repository so that tests can
// assert that an operation left all three untouched.
type RepositoryState struct {
	Head      git.ObjectID
	IndexTree git.ObjectID
	Files     testhelper.DirectoryState
}

// ReadRepositoryState reads the current state of the repository.
func ReadRepositoryState(tb testing.TB, repoPath string) RepositoryState {
	tb.Helper()

	return RepositoryState{
		Head:      Head(tb, repoPath),
		IndexTree: IndexTree(tb, repoPath),
		Files:     testhelper.ReadDirectoryState(tb, repoPath, ".git"),
	}
}

// RequireRepositoryState asserts that the repository is in the expected state.
func RequireRepositoryState(tb testing.TB, repoPath string, expected RepositoryState) {
	tb.Helper()
	require.Empty(tb, cmp.Diff(expected, ReadRepositoryState(tb, repoPath)), "repository state differs (-want +got)")
}
