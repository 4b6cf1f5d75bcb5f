package operations

import (
	"context"

	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/merge"
	"gitlab.com/folio-vcs/folio/internal/git/resolve"
	"gitlab.com/folio-vcs/folio/internal/log"
)

// CherryPickRequest asks to apply a commit on top of HEAD.
type CherryPickRequest struct {
	RepositoryPath string
	// Revision is the commit-ish to pick.
	Revision git.Revision
	// Mainline is the 1-based number of the parent a merge commit is picked relative to. It
	// must be zero for other commits.
	Mainline uint
}

// CherryPickResponse describes the commit created by a cherry-pick.
type CherryPickResponse struct {
	CommitID git.ObjectID
	Message  string
}

// CherryPick applies the change introduced by the given commit on top of HEAD. The new commit
// keeps the original author and message. If the change does not apply cleanly, HEAD, the index
// and the working directory are left untouched.
func (s *Service) CherryPick(ctx context.Context, req CherryPickRequest) (CherryPickResponse, error) {
	var response CherryPickResponse

	err := s.run(ctx, "cherry-pick", req.RepositoryPath, func(ctx context.Context, op operation) error {
		picked, err := resolve.NewResolver(op.repo).Resolve(req.Revision)
		if err != nil {
			return err
		}
		log.AddFields(ctx, log.Fields{"picked_commit_id": picked.ID.String()})

		parentID, err := resolve.CherryPickParent(picked, req.Mainline)
		if err != nil {
			return err
		}

		head, err := requireIdle(op.repo)
		if err != nil {
			return err
		}

		var parentTree git.ObjectID
		if !parentID.IsEmpty() {
			if parentTree, err = s.parentTree(op, parentID); err != nil {
				return err
			}
		}

		operator, err := s.operator(op.repo)
		if err != nil {
			return err
		}

		transaction := merge.NewTransaction(op.repo, op.repo)
		synthesizer := s.synthesizer(op, operator)

		return s.guard(op).Run(ctx, func() error {
			tree, err := transaction.Apply(merge.CherryPickInput(parentTree, head.TreeID, picked.TreeID))
			if err != nil {
				return err
			}

			result, err := synthesizer.CherryPick(head, picked, tree)
			if err != nil {
				return err
			}
			log.AddFields(ctx, log.Fields{"commit_id": result.CommitID.String()})

			response = CherryPickResponse{CommitID: result.CommitID, Message: result.Message}
			return nil
		})
	})
	if err != nil {
		return CherryPickResponse{}, err
	}

	return response, nil
}
