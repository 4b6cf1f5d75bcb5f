package folio

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/operations"
)

func newStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "show HEAD and any merge or revert in progress",
		UsageText: "folio status",
		Action:    statusAction,
	}
}

func statusAction(ctx *cli.Context) error {
	if err := requireArgs(ctx, 0); err != nil {
		return err
	}

	return runOperation(ctx, func(runCtx context.Context, service *operations.Service, repoPath string) error {
		status, err := service.Status(runCtx, repoPath)
		if err != nil {
			return err
		}

		writeStatus(ctx.App.Writer, status)
		return nil
	})
}

func writeStatus(w io.Writer, status operations.StatusResponse) {
	switch {
	case status.Detached:
		fmt.Fprintf(w, "HEAD detached at %s\n", status.ShortHead)
	case status.Unborn:
		fmt.Fprintf(w, "On branch %s\nNo commits yet\n", status.Branch)
	default:
		fmt.Fprintf(w, "On branch %s at %s\n", status.Branch, status.ShortHead)
	}

	if status.State != git.StateIdle {
		fmt.Fprintf(w, "%s:", status.State)
		for _, head := range status.OtherHeads {
			fmt.Fprintf(w, " %s", head)
		}
		fmt.Fprintln(w)
	}

	if status.Clean {
		fmt.Fprintln(w, "Working tree clean")
	} else {
		fmt.Fprintln(w, "Working tree has uncommitted changes")
	}
}
