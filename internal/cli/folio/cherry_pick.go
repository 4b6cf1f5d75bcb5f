package folio

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/operations"
)

const flagMainline = "mainline"

func newCherryPickCommand() *cli.Command {
	return &cli.Command{
		Name:      "cherry-pick",
		Usage:     "apply the changes of a commit on top of HEAD",
		UsageText: "folio cherry-pick [--mainline N] <commit-ish>",
		Description: `Create a new commit on top of HEAD with the changes introduced by the given commit. The
new commit keeps the author and message of the picked commit.

Picking a merge commit requires --mainline to select the parent the changes are computed
against. Conflicts leave the repository untouched and exit with 2.`,
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:    flagMainline,
				Aliases: []string{"m"},
				Usage:   "1-based `PARENT` number of the merge commit to diff against",
			},
		},
		Action: cherryPickAction,
	}
}

func cherryPickAction(ctx *cli.Context) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}

	return runOperation(ctx, func(runCtx context.Context, service *operations.Service, repoPath string) error {
		response, err := service.CherryPick(runCtx, operations.CherryPickRequest{
			RepositoryPath: repoPath,
			Revision:       git.Revision(ctx.Args().First()),
			Mainline:       ctx.Uint(flagMainline),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.App.Writer, "[%s] %s\n", response.CommitID, response.Message)
		return nil
	})
}
