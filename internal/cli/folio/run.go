package folio

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"gitlab.com/folio-vcs/folio/internal/errors"
	"gitlab.com/folio-vcs/folio/internal/folio/config"
	"gitlab.com/folio-vcs/folio/internal/log"
	"gitlab.com/folio-vcs/folio/internal/operations"
	"gitlab.com/gitlab-org/labkit/correlation"
)

const (
	exitCodeFailure   = 1
	exitCodeConflict  = 2
	exitCodeNoChanges = 3
)

// loadConfig reads the configuration file given on the command line, if any, applies
// environment overrides and validates the result.
func loadConfig(ctx *cli.Context) (config.Cfg, error) {
	cfg := config.Default()

	if path := ctx.String(flagConfig); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return config.Cfg{}, fmt.Errorf("open configuration: %w", err)
		}
		defer file.Close()

		cfg, err = config.Load(file)
		if err != nil {
			return config.Cfg{}, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return config.Cfg{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.Cfg{}, fmt.Errorf("invalid configuration:\n%w", err)
	}

	return cfg, nil
}

// runOperation sets up the service for a single invocation and calls fn with it. Metrics are
// written to the configured textfile regardless of the outcome.
func runOperation(ctx *cli.Context, fn func(context.Context, *operations.Service, string) error) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return cli.Exit(err.Error(), exitCodeFailure)
	}

	logger := log.Configure(ctx.App.ErrWriter, cfg.Logging.Format, cfg.Logging.Level)

	metrics := operations.NewMetrics()
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics)

	service := operations.NewService(cfg, logger, operations.WithMetrics(metrics))

	runCtx := correlation.ContextWithCorrelation(ctx.Context, correlation.SafeRandomID())
	runErr := fn(runCtx, service, ctx.String(flagRepository))

	if cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, registry); err != nil {
			logger.WithError(err).Warn("writing metrics textfile failed")
		}
	}

	return exitError(runErr)
}

// exitError maps errors to exit codes: conflicts exit with 2, operations without any change
// with 3 and everything else with 1.
func exitError(err error) error {
	if err == nil {
		return nil
	}

	var conflictErr errors.MergeConflictError
	switch {
	case stderrors.As(err, &conflictErr):
		return cli.Exit(err.Error(), exitCodeConflict)
	case stderrors.Is(err, errors.ErrNoChangesToSave), stderrors.Is(err, errors.ErrEmptyChange):
		return cli.Exit(err.Error(), exitCodeNoChanges)
	default:
		return cli.Exit(err.Error(), exitCodeFailure)
	}
}

func requireArgs(ctx *cli.Context, n int) error {
	if ctx.NArg() != n {
		return cli.Exit(fmt.Sprintf("%s: expected %d argument(s), got %d\n\nUsage: %s", ctx.Command.Name, n, ctx.NArg(), ctx.Command.UsageText), exitCodeFailure)
	}
	return nil
}
