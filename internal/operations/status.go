package operations

import (
	"context"

	"gitlab.com/folio-vcs/folio/internal/git"
)

// StatusResponse describes HEAD and any operation in progress.
type StatusResponse struct {
	// Branch is the branch HEAD points to, or "HEAD" if it is detached.
	Branch string
	// Head is the commit HEAD points to. It is empty if the branch has no commits yet.
	Head git.ObjectID
	// ShortHead is the abbreviated form of Head.
	ShortHead string
	Unborn    bool
	Detached  bool
	// State is the merge or revert in progress, if any.
	State git.OperationState
	// OtherHeads are the commits recorded by the operation in progress.
	OtherHeads []git.ObjectID
	// Clean is set when tracked files have neither staged nor unstaged modifications.
	Clean bool
}

// Status reports what HEAD points to and whether a merge or revert is waiting to be saved.
func (s *Service) Status(ctx context.Context, repositoryPath string) (StatusResponse, error) {
	var response StatusResponse

	err := s.run(ctx, "status", repositoryPath, func(ctx context.Context, op operation) error {
		head, err := op.repo.Head()
		if err != nil {
			return err
		}

		marker, err := op.repo.Marker()
		if err != nil {
			return err
		}

		cleanErr := op.repo.RequireCleanWorktree()
		if cleanErr != nil && !isRepositoryState(cleanErr) {
			return cleanErr
		}

		response = StatusResponse{
			Branch:     head.Branch,
			Head:       head.Target,
			ShortHead:  head.Target.Abbreviate(s.abbrevLength()),
			Unborn:     head.Unborn,
			Detached:   head.Detached,
			State:      marker.State,
			OtherHeads: marker.Heads,
			Clean:      cleanErr == nil,
		}
		return nil
	})
	if err != nil {
		return StatusResponse{}, err
	}

	return response, nil
}
