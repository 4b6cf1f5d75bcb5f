package operations

import (
	"context"

	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/save"
	"gitlab.com/folio-vcs/folio/internal/log"
)

// SaveRequest asks to record the working directory as a new commit.
type SaveRequest struct {
	RepositoryPath string
	// Message is the commit message. It may be empty when finalizing a merge or revert.
	Message string
	// Paths restricts the commit to the given files and directories.
	Paths []string
}

// SaveResponse describes the commit created by a save.
type SaveResponse struct {
	CommitID       git.ObjectID
	ShortID        string
	Branch         string
	IsMergeCommit  bool
	IsRevertCommit bool
	Warnings       []string
}

// Save records the changes in the working directory as a new commit. A merge or revert that
// has been started but not committed is finalized.
func (s *Service) Save(ctx context.Context, req SaveRequest) (SaveResponse, error) {
	var response SaveResponse

	err := s.run(ctx, "save", req.RepositoryPath, func(ctx context.Context, op operation) error {
		operator, err := s.operator(op.repo)
		if err != nil {
			return err
		}

		result, err := save.NewOperation(op.repo, s.synthesizer(op, operator), s.abbrevLength()).Save(save.Request{
			Message: req.Message,
			Paths:   req.Paths,
		})
		if err != nil {
			return err
		}

		for _, warning := range result.Warnings {
			op.logger.WithField("warning", warning).WarnContext(ctx, "path skipped")
		}
		log.AddFields(ctx, log.Fields{
			"commit_id":        result.CommitID.String(),
			"branch":           result.Branch,
			"is_merge_commit":  result.IsMergeCommit,
			"is_revert_commit": result.IsRevertCommit,
		})

		response = SaveResponse(result)
		return nil
	})
	if err != nil {
		return SaveResponse{}, err
	}

	return response, nil
}
