package repository

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
	"gitlab.com/folio-vcs/folio/internal/errors"
	"gitlab.com/folio-vcs/folio/internal/git"
)

// CommitParams are the fields of a commit to be written.
type CommitParams struct {
	TreeID    git.ObjectID
	ParentIDs []git.ObjectID
	Author    git.Signature
	Committer git.Signature
	Message   string
}

// ResolveCommit resolves a commit-ish. If the revision does not resolve to a commit, a
// CommitNotFoundError is returned.
func (r *Repository) ResolveCommit(revision git.Revision) (git.Commit, error) {
	object, err := r.repo.RevparseSingle(revision.String())
	switch {
	case git2go.IsErrorCode(err, git2go.ErrorCodeNotFound),
		git2go.IsErrorCode(err, git2go.ErrorCodeInvalidSpec),
		git2go.IsErrorCode(err, git2go.ErrorCodeAmbiguous):
		return git.Commit{}, errors.CommitNotFoundError{Revision: revision.String()}
	case err != nil:
		return git.Commit{}, fmt.Errorf("lookup commit %q: %w", revision, err)
	}
	defer object.Free()

	peeled, err := object.Peel(git2go.ObjectCommit)
	if err != nil {
		return git.Commit{}, errors.CommitNotFoundError{Revision: revision.String()}
	}
	defer peeled.Free()

	commit, err := peeled.AsCommit()
	if err != nil {
		return git.Commit{}, fmt.Errorf("lookup commit %q: as commit: %w", revision, err)
	}

	return newCommit(commit), nil
}

// LookupCommit reads the commit with the given ID.
func (r *Repository) LookupCommit(id git.ObjectID) (git.Commit, error) {
	commit, err := r.lookupCommit(id)
	if err != nil {
		return git.Commit{}, err
	}
	defer commit.Free()

	return newCommit(commit), nil
}

func (r *Repository) lookupCommit(id git.ObjectID) (*git2go.Commit, error) {
	oid, err := toOid(id)
	if err != nil {
		return nil, err
	}

	commit, err := r.repo.LookupCommit(oid)
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return nil, errors.CommitNotFoundError{Revision: id.String()}
		}
		return nil, fmt.Errorf("lookup commit %q: %w", id, err)
	}

	return commit, nil
}

// WriteCommit writes a commit object into the object database. No reference is updated. If the
// repository has a signer, the commit is signed.
func (r *Repository) WriteCommit(params CommitParams) (git.ObjectID, error) {
	author := toSignature(params.Author)
	committer := toSignature(params.Committer)

	if r.signer == nil {
		treeOID, err := toOid(params.TreeID)
		if err != nil {
			return "", err
		}

		parents := make([]*git2go.Oid, 0, len(params.ParentIDs))
		for _, parentID := range params.ParentIDs {
			oid, err := toOid(parentID)
			if err != nil {
				return "", err
			}
			parents = append(parents, oid)
		}

		commitOID, err := r.repo.CreateCommitFromIds("", author, committer, params.Message, treeOID, parents...)
		if err != nil {
			return "", fmt.Errorf("create commit: %w", err)
		}

		return git.ObjectID(commitOID.String()), nil
	}

	tree, err := r.lookupTree(params.TreeID)
	if err != nil {
		return "", err
	}
	defer tree.Free()

	parents := make([]*git2go.Commit, 0, len(params.ParentIDs))
	defer func() {
		for _, parent := range parents {
			parent.Free()
		}
	}()
	for _, parentID := range params.ParentIDs {
		parent, err := r.lookupCommit(parentID)
		if err != nil {
			return "", err
		}
		parents = append(parents, parent)
	}

	buffer, err := r.repo.CreateCommitBuffer(author, committer, git2go.MessageEncodingUTF8, params.Message, tree, parents...)
	if err != nil {
		return "", fmt.Errorf("create commit buffer: %w", err)
	}

	signature, err := r.signer.CreateSignature(buffer)
	if err != nil {
		return "", fmt.Errorf("create commit signature: %w", err)
	}

	commitOID, err := r.repo.CreateCommitWithSignature(string(buffer), string(signature), "")
	if err != nil {
		return "", fmt.Errorf("create signed commit: %w", err)
	}

	return git.ObjectID(commitOID.String()), nil
}

func newCommit(commit *git2go.Commit) git.Commit {
	parents := make([]git.ObjectID, 0, commit.ParentCount())
	for i := uint(0); i < commit.ParentCount(); i++ {
		parents = append(parents, git.ObjectID(commit.ParentId(i).String()))
	}

	return git.Commit{
		ID:        git.ObjectID(commit.Id().String()),
		TreeID:    git.ObjectID(commit.TreeId().String()),
		ParentIDs: parents,
		Author:    fromSignature(commit.Author()),
		Committer: fromSignature(commit.Committer()),
		Message:   commit.Message(),
	}
}

func toSignature(signature git.Signature) *git2go.Signature {
	return &git2go.Signature{
		Name:  signature.Name,
		Email: signature.Email,
		When:  signature.When,
	}
}

func fromSignature(signature *git2go.Signature) git.Signature {
	return git.Signature{
		Name:  signature.Name,
		Email: signature.Email,
		When:  signature.When,
	}
}
