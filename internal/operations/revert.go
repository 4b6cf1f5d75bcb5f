package operations

import (
	"context"

	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/merge"
	"gitlab.com/folio-vcs/folio/internal/git/resolve"
	"gitlab.com/folio-vcs/folio/internal/log"
)

// RevertRequest asks to revert a commit on top of HEAD.
type RevertRequest struct {
	RepositoryPath string
	// Revision is the commit-ish to revert.
	Revision git.Revision
}

// RevertResponse describes the commit created by a revert.
type RevertResponse struct {
	CommitID git.ObjectID
	Message  string
}

// Revert creates a new commit on top of HEAD that undoes the changes introduced by the given
// commit. Merge commits are reverted relative to their first parent. If the change does not
// apply cleanly, HEAD, the index and the working directory are left untouched.
func (s *Service) Revert(ctx context.Context, req RevertRequest) (RevertResponse, error) {
	var response RevertResponse

	err := s.run(ctx, "revert", req.RepositoryPath, func(ctx context.Context, op operation) error {
		reverted, err := resolve.NewResolver(op.repo).Resolve(req.Revision)
		if err != nil {
			return err
		}
		log.AddFields(ctx, log.Fields{"reverted_commit_id": reverted.ID.String()})

		head, err := requireIdle(op.repo)
		if err != nil {
			return err
		}

		parentTree, err := s.parentTree(op, resolve.RevertParent(reverted))
		if err != nil {
			return err
		}

		operator, err := s.operator(op.repo)
		if err != nil {
			return err
		}

		transaction := merge.NewTransaction(op.repo, op.repo)
		synthesizer := s.synthesizer(op, operator)

		return s.guard(op).Run(ctx, func() error {
			tree, err := transaction.Apply(merge.RevertInput(reverted.TreeID, parentTree, head.TreeID))
			if err != nil {
				return err
			}

			result, err := synthesizer.Revert(head, reverted, tree)
			if err != nil {
				return err
			}
			log.AddFields(ctx, log.Fields{"commit_id": result.CommitID.String()})

			response = RevertResponse{CommitID: result.CommitID, Message: result.Message}
			return nil
		})
	})
	if err != nil {
		return RevertResponse{}, err
	}

	return response, nil
}

// parentTree returns the tree of the given parent or the empty tree if there is no parent.
func (s *Service) parentTree(op operation, parentID git.ObjectID) (git.ObjectID, error) {
	if parentID.IsEmpty() {
		return op.repo.EmptyTree()
	}

	parent, err := op.repo.LookupCommit(parentID)
	if err != nil {
		return "", err
	}

	return parent.TreeID, nil
}
