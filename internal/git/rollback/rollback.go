// Package rollback restores a repository to its previous state when a transaction fails.
package rollback

import (
	"context"
	"fmt"

	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/log"
)

// Workspace is the mutable part of a repository: HEAD, the index and the working directory.
type Workspace interface {
	// Snapshot captures the current HEAD and writes the index into a tree.
	Snapshot() (git.Snapshot, error)
	// Restore hard-resets HEAD and the working directory to the snapshot and restores the
	// index from the snapshot's tree.
	Restore(git.Snapshot) error
}

// Guard runs a transaction and restores the workspace if it fails.
type Guard struct {
	workspace  Workspace
	logger     log.Logger
	onRollback func(cause error)
}

// Option configures a Guard.
type Option func(*Guard)

// WithRollbackHook registers a function that is invoked with the original error each time the
// workspace is restored.
func WithRollbackHook(hook func(cause error)) Option {
	return func(g *Guard) {
		g.onRollback = hook
	}
}

// NewGuard creates a new Guard.
func NewGuard(workspace Workspace, logger log.Logger, opts ...Option) *Guard {
	guard := &Guard{
		workspace:  workspace,
		logger:     logger,
		onRollback: func(error) {},
	}
	for _, opt := range opts {
		opt(guard)
	}
	return guard
}

// Run snapshots the workspace and then calls fn. If fn returns an error or panics the workspace
// is restored before the error is returned or the panic is propagated. A cancelled context is
// only honoured before the snapshot is taken: once fn has started it runs to completion.
func (g *Guard) Run(ctx context.Context, fn func() error) (returnedErr error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot, err := g.workspace.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			g.rollback(ctx, snapshot, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	if err := fn(); err != nil {
		if restoreErr := g.rollback(ctx, snapshot, err); restoreErr != nil {
			return fmt.Errorf("%w; rollback failed: %w", err, restoreErr)
		}
		return err
	}

	return nil
}

func (g *Guard) rollback(ctx context.Context, snapshot git.Snapshot, cause error) error {
	g.onRollback(cause)

	logger := g.logger.WithError(cause).WithFields(log.Fields{
		"snapshot_head":       snapshot.Head.String(),
		"snapshot_index_tree": snapshot.IndexTree.String(),
	})
	logger.WarnContext(ctx, "rolling back transaction")

	if err := g.workspace.Restore(snapshot); err != nil {
		logger.WithField("rollback_error", err.Error()).ErrorContext(ctx, "rollback failed")
		return err
	}

	return nil
}
