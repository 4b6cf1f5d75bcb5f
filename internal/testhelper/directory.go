package testhelper

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// DirectoryState maps slash-separated paths relative to a root directory to the contents of the
// regular files found there.
type DirectoryState map[string]string

// ReadDirectoryState walks the given directory and records every regular file. Directories named
// in skip, relative to root, are not descended into.
func ReadDirectoryState(tb testing.TB, root string, skip ...string) DirectoryState {
	tb.Helper()

	skipped := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipped[filepath.ToSlash(s)] = struct{}{}
	}

	state := DirectoryState{}
	require.NoError(tb, filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relativePath, err := filepath.Rel(root, path)
		require.NoError(tb, err)
		relativePath = filepath.ToSlash(relativePath)

		if entry.IsDir() {
			if _, ok := skipped[relativePath]; ok {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(path)
		require.NoError(tb, err)
		state[relativePath] = string(content)

		return nil
	}))

	return state
}
