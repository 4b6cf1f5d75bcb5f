package git

import (
	"fmt"
	"strings"
)

// Revision represents anything that resolves to a commit: an object ID, a branch or tag name
// or a relative reference like "HEAD~2".
type Revision string

// String returns the string representation of the Revision.
func (r Revision) String() string {
	return string(r)
}

// ValidateRevision checks if a revision looks valid.
func ValidateRevision(revision Revision) error {
	if len(revision) == 0 {
		return fmt.Errorf("empty revision")
	}
	if strings.HasPrefix(string(revision), "-") {
		return fmt.Errorf("revision can't start with '-'")
	}
	if strings.ContainsAny(string(revision), "\n\r") {
		return fmt.Errorf("revision can't contain line breaks")
	}
	if strings.Contains(string(revision), "\x00") {
		return fmt.Errorf("revision can't contain NUL")
	}
	if strings.Contains(string(revision), ":") {
		return fmt.Errorf("revision can't contain ':'")
	}
	if strings.Contains(string(revision), "\\") {
		return fmt.Errorf("revision can't contain '\\'")
	}
	return nil
}
