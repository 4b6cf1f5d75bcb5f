package folio

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/operations"
)

func newRevertCommand() *cli.Command {
	return &cli.Command{
		Name:      "revert",
		Usage:     "create a commit undoing the changes of a commit",
		UsageText: "folio revert <commit-ish>",
		Description: `Create a new commit on top of HEAD that undoes the changes introduced by the given
commit. Merge commits are reverted relative to their first parent.

If the change does not apply cleanly, the repository is left untouched and the conflicting
paths are reported. The command exits with 2 in that case and with 3 if reverting would not
change anything.`,
		Action: revertAction,
	}
}

func revertAction(ctx *cli.Context) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}

	return runOperation(ctx, func(runCtx context.Context, service *operations.Service, repoPath string) error {
		response, err := service.Revert(runCtx, operations.RevertRequest{
			RepositoryPath: repoPath,
			Revision:       git.Revision(ctx.Args().First()),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.App.Writer, "[%s] %s\n", response.CommitID, response.Message)
		return nil
	})
}
