// Package folio implements the folio command line interface.
package folio

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gitlab.com/folio-vcs/folio/internal/version"
)

const (
	flagConfig     = "config"
	flagRepository = "repository"
)

func init() {
	cli.VersionPrinter = func(ctx *cli.Context) {
		fmt.Fprintln(ctx.App.Writer, version.GetVersionString("folio"))
	}
}

// NewApp returns a new folio app.
func NewApp() *cli.App {
	return &cli.App{
		Name:            "folio",
		Usage:           "revert, cherry-pick and save changes of a repository",
		Version:         version.GetVersionString("folio"),
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Usage:   "load configuration from `FILE`",
				EnvVars: []string{"FOLIO_CONFIG"},
			},
			&cli.StringFlag{
				Name:    flagRepository,
				Aliases: []string{"C"},
				Usage:   "run in the repository at `DIR`",
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			newRevertCommand(),
			newCherryPickCommand(),
			newSaveCommand(),
			newStatusCommand(),
			newConfigCommand(),
		},
	}
}
