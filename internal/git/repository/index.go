package repository

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/conflict"
)

// Index is the repository's staging area. Changes are kept in memory until Write is called.
type Index struct {
	repo  *Repository
	index *git2go.Index
}

// Index opens the repository's index.
func (r *Repository) Index() (*Index, error) {
	index, err := r.repo.Index()
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{repo: r, index: index}, nil
}

// Free releases the index. Changes that have not been written are discarded.
func (i *Index) Free() {
	i.index.Free()
}

// EntryCount returns the number of entries in the index.
func (i *Index) EntryCount() uint {
	return i.index.EntryCount()
}

// Conflicts returns the conflict entries currently held by the index.
func (i *Index) Conflicts() (conflict.Set, error) {
	if !i.index.HasConflicts() {
		return nil, nil
	}

	return readConflicts(i.index)
}

// AddAll stages every change in the working directory. New files are added unless they are
// ignored, deleted files are removed.
func (i *Index) AddAll() error {
	if err := i.index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil); err != nil {
		return fmt.Errorf("add all: %w", err)
	}

	if err := i.index.UpdateAll([]string{"*"}, nil); err != nil {
		return fmt.Errorf("update all: %w", err)
	}

	return nil
}

// StagePath stages the current working directory state of a single file. If the file does not
// exist anymore it is removed from the index. Conflict entries of the path are resolved either
// way.
func (i *Index) StagePath(path string) error {
	_, err := os.Lstat(filepath.Join(i.repo.WorkDir(), path))
	switch {
	case err == nil:
		if err := i.index.AddByPath(path); err != nil {
			return fmt.Errorf("add %q: %w", path, err)
		}
	case os.IsNotExist(err):
		if err := i.index.RemoveByPath(path); err != nil {
			return fmt.Errorf("remove %q: %w", path, err)
		}
	default:
		return fmt.Errorf("stat %q: %w", path, err)
	}

	return nil
}

// AddPaths stages the given paths relative to the working directory. Directories are expanded
// recursively. Ignored files and paths that neither exist nor are tracked are skipped, and a
// warning describing each skipped path is returned.
func (i *Index) AddPaths(paths []string) ([]string, error) {
	workDir := i.repo.WorkDir()

	var warnings []string
	for _, requested := range paths {
		path, ok := i.relativePath(requested)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: outside of the repository", requested))
			continue
		}

		info, err := os.Lstat(filepath.Join(workDir, path))
		switch {
		case os.IsNotExist(err):
			if _, err := i.index.EntryByPath(path, 0); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: does not exist", requested))
				continue
			}

			if err := i.index.RemoveByPath(path); err != nil {
				return nil, fmt.Errorf("remove %q: %w", path, err)
			}
		case err != nil:
			return nil, fmt.Errorf("stat %q: %w", path, err)
		case info.IsDir():
			if err := i.addDirectory(path); err != nil {
				return nil, err
			}
		default:
			ignored, err := i.repo.IsPathIgnored(path)
			if err != nil {
				return nil, err
			}
			if ignored {
				warnings = append(warnings, fmt.Sprintf("%s: ignored", requested))
				continue
			}

			if err := i.index.AddByPath(path); err != nil {
				return nil, fmt.Errorf("add %q: %w", path, err)
			}
		}
	}

	return warnings, nil
}

func (i *Index) addDirectory(dir string) error {
	workDir := i.repo.WorkDir()

	if err := filepath.WalkDir(filepath.Join(workDir, dir), func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relativePath, err := filepath.Rel(workDir, path)
		if err != nil {
			return err
		}
		relativePath = filepath.ToSlash(relativePath)

		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		ignored, err := i.repo.IsPathIgnored(relativePath)
		if err != nil {
			return err
		}
		if ignored {
			return nil
		}

		if err := i.index.AddByPath(relativePath); err != nil {
			return fmt.Errorf("add %q: %w", relativePath, err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("walking %q: %w", dir, err)
	}

	// Tracked files that have been deleted below the directory.
	if err := i.index.UpdateAll([]string{dir}, nil); err != nil {
		return fmt.Errorf("update %q: %w", dir, err)
	}

	return nil
}

// relativePath converts a requested path into a clean, slash-separated path relative to the
// working directory. It returns false if the path points outside of it.
func (i *Index) relativePath(requested string) (string, bool) {
	workDir := filepath.Clean(i.repo.WorkDir())

	path := requested
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	relativePath, err := filepath.Rel(workDir, filepath.Clean(path))
	if err != nil {
		return "", false
	}
	relativePath = filepath.ToSlash(relativePath)

	if relativePath == ".." || strings.HasPrefix(relativePath, "../") {
		return "", false
	}

	if relativePath == ".git" || strings.HasPrefix(relativePath, ".git/") {
		return "", false
	}

	return relativePath, true
}

// TreeWithPaths writes a tree that matches base everywhere except at and below the given paths,
// which take their entries from the index. The index itself is left untouched. An empty base
// starts from the empty tree.
func (i *Index) TreeWithPaths(base git.ObjectID, paths []string) (git.ObjectID, error) {
	var scopes []string
	for _, requested := range paths {
		if path, ok := i.relativePath(requested); ok {
			scopes = append(scopes, path)
		}
	}

	scoped, err := git2go.NewIndex()
	if err != nil {
		return "", fmt.Errorf("new index: %w", err)
	}
	defer scoped.Free()

	if base != "" {
		tree, err := i.repo.lookupTree(base)
		if err != nil {
			return "", err
		}
		defer tree.Free()

		if err := scoped.ReadTree(tree); err != nil {
			return "", fmt.Errorf("read tree into index: %w", err)
		}
	}

	var stale []string
	for n := uint(0); n < scoped.EntryCount(); n++ {
		entry, err := scoped.EntryByIndex(n)
		if err != nil {
			return "", fmt.Errorf("base entry: %w", err)
		}
		if inScope(entry.Path, scopes) {
			stale = append(stale, entry.Path)
		}
	}
	for _, path := range stale {
		if err := scoped.RemoveByPath(path); err != nil {
			return "", fmt.Errorf("remove %q: %w", path, err)
		}
	}

	for n := uint(0); n < i.index.EntryCount(); n++ {
		entry, err := i.index.EntryByIndex(n)
		if err != nil {
			return "", fmt.Errorf("index entry: %w", err)
		}
		if !inScope(entry.Path, scopes) {
			continue
		}
		if err := scoped.Add(entry); err != nil {
			return "", fmt.Errorf("add %q: %w", entry.Path, err)
		}
	}

	treeOID, err := scoped.WriteTreeTo(i.repo.repo)
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}

	return git.ObjectID(treeOID.String()), nil
}

func inScope(path string, scopes []string) bool {
	for _, scope := range scopes {
		if scope == "." || path == scope || strings.HasPrefix(path, scope+"/") {
			return true
		}
	}
	return false
}

// WriteTree writes the index into a tree without persisting the index itself.
func (i *Index) WriteTree() (git.ObjectID, error) {
	treeOID, err := i.index.WriteTreeTo(i.repo.repo)
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	return git.ObjectID(treeOID.String()), nil
}

// Write persists the index to disk.
func (i *Index) Write() error {
	if err := i.index.Write(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
