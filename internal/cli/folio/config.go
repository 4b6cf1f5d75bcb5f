package folio

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v2"
	"gitlab.com/folio-vcs/folio/internal/errors/cfgerror"
	"gitlab.com/folio-vcs/folio/internal/folio/config"
)

const validationErrorCode = 2

func newConfigCommand() *cli.Command {
	return &cli.Command{
		Name:            "config",
		Usage:           "run configuration-related commands",
		HideHelpCommand: true,
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "validate folio configuration",
				UsageText: `folio config validate < <folio_config_file>

Example: folio config validate < folio.toml`,
				Description: `Check that input provided on stdin is valid folio configuration.

Prints all configuration problems to stdout in JSON format. The output's structure includes:

- A key, which is the path to the configuration field where the problem is detected.
- A message, with an explanation of the problem.`,
				Action: validateConfigAction,
			},
		},
	}
}

func validateConfigAction(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.App.Reader)
	if err != nil {
		if writeTomlReadError(err, ctx.App.Writer, ctx.App.ErrWriter) {
			return cli.Exit("", validationErrorCode)
		}

		return cli.Exit("", exitCodeFailure)
	}

	if !validate(&cfg, ctx.App.Writer, ctx.App.ErrWriter) {
		return cli.Exit("", validationErrorCode)
	}

	return nil
}

// validate invokes the validator and writes the errors it returns in JSON format into
// outWriter. It returns true if there are no errors.
func validate(validator interface{ Validate() error }, outWriter io.Writer, errWriter io.Writer) bool {
	out := validationOutput{}
	for _, err := range cfgerror.New().Append(validator.Validate()) {
		out.Errors = append(out.Errors, validationOutputError{
			Key:     err.Key,
			Message: err.Cause.Error(),
		})
	}

	if len(out.Errors) > 0 {
		jsonEncoded(outWriter, errWriter, "  ", out)
		return false
	}

	return true
}

// writeTomlReadError writes err into outWriter if it is a decoding error caused by an invalid
// file format or wrong values, and returns true. Otherwise err is written into errWriter.
func writeTomlReadError(err error, outWriter io.Writer, errWriter io.Writer) bool {
	terr := &toml.DecodeError{}
	if stderrors.As(err, &terr) {
		row, column := terr.Position()
		jsonEncoded(outWriter, errWriter, "  ", validationOutput{Errors: []validationOutputError{{
			Key:     terr.Key(),
			Message: fmt.Sprintf("line %d column %d: %v", row, column, terr.Error()),
		}}})
		return true
	}

	fmt.Fprintf(errWriter, "processing input data: %v\n", err)
	return false
}

type validationOutputError struct {
	Key     []string `json:"key,omitempty"`
	Message string   `json:"message,omitempty"`
}

type validationOutput struct {
	Errors []validationOutputError `json:"errors,omitempty"`
}

func jsonEncoded(outStream io.Writer, errStream io.Writer, indent string, val any) {
	encoder := json.NewEncoder(outStream)
	encoder.SetIndent("", indent)
	if err := encoder.Encode(val); err != nil {
		fmt.Fprintf(errStream, "writing results: %v\n", err)
	}
}
