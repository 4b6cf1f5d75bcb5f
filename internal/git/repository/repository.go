// Package repository provides the handle through which every writer operation reads and mutates
// a repository. It is backed by libgit2.
package repository

import (
	"fmt"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
	"gitlab.com/folio-vcs/folio/internal/errors"
	"gitlab.com/folio-vcs/folio/internal/git"
)

// DetachedHeadBranch is reported as branch name when HEAD does not point to a branch.
const DetachedHeadBranch = "HEAD"

// Signer creates an armored detached signature for the given commit buffer.
type Signer interface {
	CreateSignature(content []byte) ([]byte, error)
}

// Option configures a Repository.
type Option func(*Repository)

// WithSigner causes every commit written through the repository to be signed.
func WithSigner(signer Signer) Option {
	return func(r *Repository) {
		r.signer = signer
	}
}

// Repository is an open, non-bare repository.
type Repository struct {
	repo   *git2go.Repository
	signer Signer
}

// DisableGlobalConfig tells libgit2 to ignore system, XDG and global configuration files. Only
// the repository's own configuration is honoured afterwards.
func DisableGlobalConfig() error {
	for _, configLevel := range []git2go.ConfigLevel{
		git2go.ConfigLevelSystem,
		git2go.ConfigLevelXDG,
		git2go.ConfigLevelGlobal,
	} {
		if err := git2go.SetSearchPath(configLevel, "/dev/null"); err != nil {
			return fmt.Errorf("setting search path: %w", err)
		}
	}

	return nil
}

// Open opens the repository whose working directory is at path. The path must point at the
// repository itself, parent directories are not searched.
func Open(path string, opts ...Option) (*Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", errors.ErrRepositoryNotFound)
	}

	repo, err := git2go.OpenRepositoryExtended(path, git2go.RepositoryOpenNoSearch, "")
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return nil, fmt.Errorf("%w: %q", errors.ErrRepositoryNotFound, path)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	if repo.IsBare() {
		repo.Free()
		return nil, errors.NewRepositoryStateError("repository %q has no working directory", path)
	}

	r := &Repository{repo: repo}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Close frees the resources held by the repository.
func (r *Repository) Close() error {
	r.repo.Free()
	return nil
}

// WorkDir returns the path of the working directory.
func (r *Repository) WorkDir() string {
	return r.repo.Workdir()
}

// Head describes what HEAD points to.
type Head struct {
	// Target is the commit HEAD resolves to. It is empty if HEAD is unborn.
	Target git.ObjectID
	// Branch is the short name of the branch HEAD points to, or DetachedHeadBranch.
	Branch string
	// Unborn is set when HEAD points to a branch that does not exist yet.
	Unborn bool
	// Detached is set when HEAD points to a commit directly.
	Detached bool
}

// Head reads HEAD.
func (r *Repository) Head() (Head, error) {
	unborn, err := r.repo.IsHeadUnborn()
	if err != nil {
		return Head{}, fmt.Errorf("checking for unborn HEAD: %w", err)
	}

	if unborn {
		ref, err := r.repo.References.Lookup("HEAD")
		if err != nil {
			return Head{}, fmt.Errorf("lookup HEAD: %w", err)
		}
		defer ref.Free()

		return Head{
			Branch: strings.TrimPrefix(ref.SymbolicTarget(), "refs/heads/"),
			Unborn: true,
		}, nil
	}

	detached, err := r.repo.IsHeadDetached()
	if err != nil {
		return Head{}, fmt.Errorf("checking for detached HEAD: %w", err)
	}

	head, err := r.repo.Head()
	if err != nil {
		return Head{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	defer head.Free()

	branch := DetachedHeadBranch
	if !detached {
		branch = head.Shorthand()
	}

	return Head{
		Target:   git.ObjectID(head.Target().String()),
		Branch:   branch,
		Detached: detached,
	}, nil
}

// UpdateHead moves HEAD, or the branch it points to, from expectedOld to newHead. An empty
// expectedOld means that HEAD is expected to be unborn.
func (r *Repository) UpdateHead(newHead, expectedOld git.ObjectID, reflogMessage string) error {
	current, err := r.Head()
	if err != nil {
		return err
	}

	if current.Target != expectedOld {
		return errors.NewRepositoryStateError("HEAD moved from %q to %q", expectedOld, current.Target)
	}

	newOID, err := git2go.NewOid(newHead.String())
	if err != nil {
		return fmt.Errorf("parse commit ID: %w", err)
	}

	if current.Detached {
		if err := r.repo.SetHeadDetached(newOID); err != nil {
			return fmt.Errorf("set detached HEAD: %w", err)
		}
		return nil
	}

	ref, err := r.repo.References.Lookup("HEAD")
	if err != nil {
		return fmt.Errorf("lookup HEAD: %w", err)
	}
	defer ref.Free()

	updated, err := r.repo.References.Create(ref.SymbolicTarget(), newOID, !current.Unborn, reflogMessage)
	if err != nil {
		return fmt.Errorf("update %q: %w", ref.SymbolicTarget(), err)
	}
	updated.Free()

	return nil
}

// DefaultSignature returns the identity configured in the repository's user.name and user.email,
// timestamped now.
func (r *Repository) DefaultSignature() (git.Signature, error) {
	signature, err := r.repo.DefaultSignature()
	if err != nil {
		return git.Signature{}, fmt.Errorf("default signature: %w", err)
	}

	return git.NewSignature(signature.Name, signature.Email, signature.When), nil
}

// IsPathIgnored determines whether the path relative to the working directory is ignored.
func (r *Repository) IsPathIgnored(path string) (bool, error) {
	ignored, err := r.repo.IsPathIgnored(path)
	if err != nil {
		return false, fmt.Errorf("checking whether %q is ignored: %w", path, err)
	}
	return ignored, nil
}

func toOid(id git.ObjectID) (*git2go.Oid, error) {
	oid, err := git2go.NewOid(id.String())
	if err != nil {
		return nil, fmt.Errorf("parse object ID %q: %w", id, err)
	}
	return oid, nil
}
