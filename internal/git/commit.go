package git

import "strings"

// Commit is the immutable description of a commit object as read from the object database.
type Commit struct {
	// ID is the object ID of the commit.
	ID ObjectID
	// TreeID is the object ID of the commit's root tree.
	TreeID ObjectID
	// ParentIDs are the object IDs of the commit's parents, in order.
	ParentIDs []ObjectID
	// Author is who wrote the change.
	Author Signature
	// Committer is who recorded the change.
	Committer Signature
	// Message is the full commit message.
	Message string
}

// IsMerge returns whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.ParentIDs) > 1
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimLeft(c.Message, "\n"), "\n")
	return strings.TrimRight(subject, "\r")
}
