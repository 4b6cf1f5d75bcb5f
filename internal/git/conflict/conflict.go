// Package conflict models the conflicts reported by a three-way tree merge.
package conflict

import (
	"golang.org/x/exp/slices"
)

// Entry is a single conflicting path as reported by the merge engine. Each side holds the path
// of the entry on that side of the merge, or is empty when the side has no entry. A conflict
// where the file was deleted by one side only has an Ancestor and one of Ours or Theirs.
type Entry struct {
	Ancestor string
	Ours     string
	Theirs   string
}

// IsEmpty determines whether the entry has no side at all.
func (e Entry) IsEmpty() bool {
	return e.Ancestor == "" && e.Ours == "" && e.Theirs == ""
}

// Path returns the path the conflict should be reported under. Our side is preferred, followed by
// the ancestor and their side.
func (e Entry) Path() string {
	switch {
	case e.Ours != "":
		return e.Ours
	case e.Ancestor != "":
		return e.Ancestor
	default:
		return e.Theirs
	}
}

// Set is the collection of conflicts of a single merge.
type Set []Entry

// HasConflicts determines whether the set contains at least one non-empty entry.
func (s Set) HasConflicts() bool {
	for _, entry := range s {
		if !entry.IsEmpty() {
			return true
		}
	}
	return false
}

// Paths returns the sorted, de-duplicated list of paths of all non-empty entries.
func (s Set) Paths() []string {
	paths := make([]string, 0, len(s))
	for _, entry := range s {
		if entry.IsEmpty() {
			continue
		}
		paths = append(paths, entry.Path())
	}

	return MergePaths(paths)
}

// MergePaths sorts the given path lists into a single list without duplicates.
func MergePaths(lists ...[]string) []string {
	var merged []string
	for _, list := range lists {
		merged = append(merged, list...)
	}

	slices.Sort(merged)
	return slices.Compact(merged)
}
