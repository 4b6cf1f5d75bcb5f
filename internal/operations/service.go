// Package operations implements the writer operations offered to callers: revert, cherry-pick,
// save and the status query. Every operation opens the repository, runs and closes it again.
package operations

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/folio-vcs/folio/internal/errors"
	"gitlab.com/folio-vcs/folio/internal/folio/config"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/repository"
	"gitlab.com/folio-vcs/folio/internal/git/rollback"
	"gitlab.com/folio-vcs/folio/internal/git/synthesize"
	"gitlab.com/folio-vcs/folio/internal/log"
	"gitlab.com/folio-vcs/folio/internal/signature"
	"gitlab.com/gitlab-org/labkit/correlation"
)

// Service runs operations against repositories on the local file system.
type Service struct {
	cfg     config.Cfg
	logger  log.Logger
	now     func() time.Time
	metrics *Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMetrics records metrics about every operation into the given collector.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// NewService creates a new Service.
func NewService(cfg config.Cfg, logger log.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// operation is the per-call environment handed to the body of an operation.
type operation struct {
	name   string
	repo   *repository.Repository
	logger log.Logger
}

// run opens the repository and calls fn with it. It attaches a correlation ID to the context,
// logs the outcome and records metrics.
func (s *Service) run(ctx context.Context, name, repoPath string, fn func(context.Context, operation) error) error {
	correlationID := correlation.ExtractFromContext(ctx)
	if correlationID == "" {
		correlationID = correlation.SafeRandomID()
		ctx = correlation.ContextWithCorrelation(ctx, correlationID)
	}

	logger := s.logger.WithFields(log.Fields{
		"operation":      name,
		"repository":     repoPath,
		"correlation_id": correlationID,
	})
	ctx = logger.ToContext(ctx)

	start := time.Now()
	err := s.runWithRepository(ctx, name, repoPath, logger, fn)
	s.metrics.observe(name, time.Since(start), err)

	if err != nil {
		logger.WithError(err).WithField("status", status(err)).ErrorContext(ctx, "operation failed")
		return err
	}

	logger.InfoContext(ctx, "operation finished")
	return nil
}

func (s *Service) runWithRepository(ctx context.Context, name, repoPath string, logger log.Logger, fn func(context.Context, operation) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if strings.TrimSpace(repoPath) == "" {
		return fmt.Errorf("%w: empty path", errors.ErrRepositoryNotFound)
	}

	opts, err := s.repositoryOptions()
	if err != nil {
		return err
	}

	repo, err := repository.Open(repoPath, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.WithError(err).WarnContext(ctx, "closing repository failed")
		}
	}()

	return fn(ctx, operation{name: name, repo: repo, logger: logger})
}

func (s *Service) repositoryOptions() ([]repository.Option, error) {
	if s.cfg.Signing.KeyPath == "" {
		return nil, nil
	}

	signingKey, err := signature.ParseSigningKey(s.cfg.Signing.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading signing key: %w", err)
	}

	return []repository.Option{repository.WithSigner(signingKey)}, nil
}

// operator returns the identity commits are created with: the configured identity or, if none
// is configured, the repository's user.name and user.email.
func (s *Service) operator(repo *repository.Repository) (git.Signature, error) {
	if s.cfg.Identity.IsSet() {
		return git.NewSignature(s.cfg.Identity.Name, s.cfg.Identity.Email, s.now()), nil
	}

	identity, err := repo.DefaultSignature()
	if err != nil {
		return git.Signature{}, errors.NewInvalidArgumentError("no operator identity configured: %v", err)
	}

	return identity, nil
}

func (s *Service) abbrevLength() int {
	if s.cfg.AbbrevLength <= 0 {
		return git.DefaultAbbrevLength
	}
	return s.cfg.AbbrevLength
}

// requireIdle verifies the preconditions of revert and cherry-pick: no merge or revert may be
// in progress, tracked files must be unmodified and HEAD must point to a commit.
func requireIdle(repo *repository.Repository) (git.Commit, error) {
	marker, err := repo.Marker()
	if err != nil {
		return git.Commit{}, err
	}
	if marker.State != git.StateIdle {
		return git.Commit{}, errors.NewRepositoryStateError("%s", marker.State)
	}

	if err := repo.RequireCleanWorktree(); err != nil {
		return git.Commit{}, err
	}

	head, err := repo.Head()
	if err != nil {
		return git.Commit{}, err
	}
	if head.Unborn {
		return git.Commit{}, errors.NewRepositoryStateError("branch %q has no commits yet", head.Branch)
	}

	return repo.LookupCommit(head.Target)
}

// guard creates the rollback guard protecting the operation's transaction.
func (s *Service) guard(op operation) *rollback.Guard {
	return rollback.NewGuard(op.repo, op.logger, rollback.WithRollbackHook(func(cause error) {
		s.metrics.rollback(op.name)

		var conflictErr errors.MergeConflictError
		if stderrors.As(cause, &conflictErr) {
			op.logger.WithField("conflicting_paths", conflictErr.Paths).Info("change does not apply cleanly")
		}
	}))
}

func (s *Service) synthesizer(op operation, operator git.Signature) *synthesize.Synthesizer {
	return synthesize.NewSynthesizer(op.repo, operator,
		synthesize.WithClock(s.now),
		synthesize.WithAbbrevLength(s.abbrevLength()),
	)
}

func isRepositoryState(err error) bool {
	var stateErr errors.RepositoryStateError
	return stderrors.As(err, &stateErr)
}
