// Package synthesize creates the commits produced by revert and cherry-pick and records them on
// HEAD.
package synthesize

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/repository"
)

// CommitWriter writes commits and moves HEAD.
type CommitWriter interface {
	WriteCommit(params repository.CommitParams) (git.ObjectID, error)
	UpdateHead(newHead, expectedOld git.ObjectID, reflogMessage string) error
	ClearMarker() error
}

// Result is the outcome of a synthesized commit.
type Result struct {
	// CommitID is the ID of the new commit HEAD now points to.
	CommitID git.ObjectID
	// Message is a human-readable status message.
	Message string
}

// Synthesizer builds commits on behalf of an operator.
type Synthesizer struct {
	writer       CommitWriter
	operator     git.Signature
	now          func() time.Time
	abbrevLength int
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithClock overrides the clock used for committer timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// WithAbbrevLength sets the number of hex digits used for commit IDs in status messages.
func WithAbbrevLength(length int) Option {
	return func(s *Synthesizer) {
		s.abbrevLength = length
	}
}

// NewSynthesizer creates a Synthesizer that commits as operator.
func NewSynthesizer(writer CommitWriter, operator git.Signature, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		writer:       writer,
		operator:     operator,
		now:          time.Now,
		abbrevLength: git.DefaultAbbrevLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signature returns the operator's signature timestamped now.
func (s *Synthesizer) Signature() git.Signature {
	return s.operator.At(s.now())
}

// RevertMessage returns the message of a commit reverting the given commit.
func RevertMessage(reverted git.Commit) string {
	return fmt.Sprintf("Revert \"%s\"\n\nThis reverts commit %s.\n", reverted.Subject(), reverted.ID)
}

// Revert commits tree as the revert of the reverted commit on top of head. Author and committer
// are the operator.
func (s *Synthesizer) Revert(head, reverted git.Commit, tree git.ObjectID) (Result, error) {
	signature := s.Signature()
	message := RevertMessage(reverted)

	commitID, err := s.commit(repository.CommitParams{
		TreeID:    tree,
		ParentIDs: []git.ObjectID{head.ID},
		Author:    signature,
		Committer: signature,
		Message:   message,
	}, head.ID, "revert: "+firstLine(message))
	if err != nil {
		return Result{}, fmt.Errorf("revert: %w", err)
	}

	return Result{
		CommitID: commitID,
		Message:  fmt.Sprintf("Reverted commit %s", reverted.ID.Abbreviate(s.abbrevLength)),
	}, nil
}

// CherryPick commits tree as a copy of the picked commit on top of head. The message and the
// author, including the authoring time, are preserved. The committer is the operator at the
// current time.
func (s *Synthesizer) CherryPick(head, picked git.Commit, tree git.ObjectID) (Result, error) {
	commitID, err := s.commit(repository.CommitParams{
		TreeID:    tree,
		ParentIDs: []git.ObjectID{head.ID},
		Author:    picked.Author,
		Committer: s.Signature(),
		Message:   picked.Message,
	}, head.ID, "cherry-pick: "+picked.Subject())
	if err != nil {
		return Result{}, fmt.Errorf("cherry-pick: %w", err)
	}

	return Result{
		CommitID: commitID,
		Message:  fmt.Sprintf("Cherry-picked commit %s", picked.ID.Abbreviate(s.abbrevLength)),
	}, nil
}

// Commit records tree on top of the given parents with the operator as author and committer.
// expectedHead is the commit HEAD is expected to point to and is empty for an unborn HEAD.
func (s *Synthesizer) Commit(expectedHead git.ObjectID, parents []git.ObjectID, tree git.ObjectID, message, reflogMessage string) (git.ObjectID, error) {
	signature := s.Signature()

	return s.commit(repository.CommitParams{
		TreeID:    tree,
		ParentIDs: parents,
		Author:    signature,
		Committer: signature,
		Message:   message,
	}, expectedHead, reflogMessage)
}

func (s *Synthesizer) commit(params repository.CommitParams, expectedHead git.ObjectID, reflogMessage string) (git.ObjectID, error) {
	commitID, err := s.writer.WriteCommit(params)
	if err != nil {
		return "", err
	}

	if err := s.writer.UpdateHead(commitID, expectedHead, reflogMessage); err != nil {
		return "", fmt.Errorf("update HEAD: %w", err)
	}

	if err := s.writer.ClearMarker(); err != nil {
		return "", fmt.Errorf("clear marker: %w", err)
	}

	return commitID, nil
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return line
}
