package gittest

import (
	"testing"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
)

// TreeEntry is an entry of a tree written by WriteCommit.
type TreeEntry struct {
	Path    string
	Content string
}

func writeTree(tb testing.TB, repo *git2go.Repository, entries []TreeEntry) *git2go.Oid {
	tb.Helper()

	index, err := git2go.NewIndex()
	require.NoError(tb, err)
	defer index.Free()

	for _, entry := range entries {
		blobOID, err := repo.CreateBlobFromBuffer([]byte(entry.Content))
		require.NoError(tb, err)

		require.NoError(tb, index.Add(&git2go.IndexEntry{
			Path: entry.Path,
			Id:   blobOID,
			Mode: git2go.FilemodeBlob,
		}))
	}

	treeOID, err := index.WriteTreeTo(repo)
	require.NoError(tb, err)

	return treeOID
}
