package folio

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"gitlab.com/folio-vcs/folio/internal/operations"
)

const flagMessage = "message"

func newSaveCommand() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "commit changes of the working directory",
		UsageText: "folio save [--message MSG] [path...]",
		Description: `Commit the given paths, or all changes if no paths are given.

If a merge or revert is in progress, it is finalized instead: all changes are committed and
any remaining conflicts are reported. A message is required unless a merge or revert is
being finalized. The command exits with 3 if there is nothing to save.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagMessage,
				Aliases: []string{"m"},
				Usage:   "commit `MESSAGE`",
			},
		},
		Action: saveAction,
	}
}

func saveAction(ctx *cli.Context) error {
	return runOperation(ctx, func(runCtx context.Context, service *operations.Service, repoPath string) error {
		response, err := service.Save(runCtx, operations.SaveRequest{
			RepositoryPath: repoPath,
			Message:        ctx.String(flagMessage),
			Paths:          ctx.Args().Slice(),
		})
		if err != nil {
			return err
		}

		for _, warning := range response.Warnings {
			fmt.Fprintf(ctx.App.ErrWriter, "warning: %s\n", warning)
		}

		kind := "commit"
		switch {
		case response.IsMergeCommit:
			kind = "merge commit"
		case response.IsRevertCommit:
			kind = "revert commit"
		}

		fmt.Fprintf(ctx.App.Writer, "[%s %s] saved %s\n", response.Branch, response.ShortID, kind)
		return nil
	})
}
