package gittest

import (
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
	"gitlab.com/folio-vcs/folio/internal/git"
)

var (
	// DefaultCommitterName is the default name of the committer and author used to create
	// commits.
	DefaultCommitterName = "Scrooge McDuck"
	// DefaultCommitterMail is the default mail of the committer and author used to create
	// commits.
	DefaultCommitterMail = "scrooge@mcduck.com"
	// DefaultCommitTime is the default time used as written by WriteCommit().
	DefaultCommitTime = time.Date(2019, 11, 3, 11, 27, 59, 0, time.FixedZone("", 60*60))
)

type writeCommitConfig struct {
	branch        string
	parents       []git.ObjectID
	authorName    string
	authorMail    string
	authorDate    time.Time
	committerName string
	committerDate time.Time
	message       string
	treeEntries   []TreeEntry
}

// WriteCommitOption is an option which can be passed to WriteCommit or CommitAll.
type WriteCommitOption func(*writeCommitConfig)

// WithBranch is an option for WriteCommit which will cause it to update the given branch name to
// the new commit.
func WithBranch(branch string) WriteCommitOption {
	return func(cfg *writeCommitConfig) {
		cfg.branch = branch
	}
}

// WithMessage sets the commit message.
func WithMessage(message string) WriteCommitOption {
	return func(cfg *writeCommitConfig) {
		cfg.message = message
	}
}

// WithParents sets the parent OIDs of the resulting commit. For CommitAll the parents are appended
// after the current HEAD.
func WithParents(parents ...git.ObjectID) WriteCommitOption {
	return func(cfg *writeCommitConfig) {
		if parents != nil {
			cfg.parents = parents
		} else {
			// Explicitly initialize the parents so that we can discern the case where the
			// commit should be created with no parents.
			cfg.parents = []git.ObjectID{}
		}
	}
}

// WithTreeEntries is an option for WriteCommit which will cause it to create a new tree and use it
// as root tree of the resulting commit.
func WithTreeEntries(entries ...TreeEntry) WriteCommitOption {
	return func(cfg *writeCommitConfig) {
		cfg.treeEntries = entries
	}
}

// WithAuthorName sets the author name.
func WithAuthorName(name string) WriteCommitOption {
	return func(cfg *writeCommitConfig) {
		cfg.authorName = name
	}
}

// WithAuthorMail sets the author mail.
func WithAuthorMail(mail string) WriteCommitOption {
	return func(cfg *writeCommitConfig) {
		cfg.authorMail = mail
	}
}

// WithAuthorDate sets the author date.
func WithAuthorDate(date time.Time) WriteCommitOption {
	return func(cfg *writeCommitConfig) {
		cfg.authorDate = date
	}
}

// WithCommitterName sets the committer name.
func WithCommitterName(name string) WriteCommitOption {
	return func(cfg *writeCommitConfig) {
		cfg.committerName = name
	}
}

// WithCommitterDate sets the committer date.
func WithCommitterDate(date time.Time) WriteCommitOption {
	return func(cfg *writeCommitConfig) {
		cfg.committerDate = date
	}
}

func newWriteCommitConfig(opts []WriteCommitOption) writeCommitConfig {
	cfg := writeCommitConfig{
		message:       "message",
		authorName:    DefaultCommitterName,
		authorMail:    DefaultCommitterMail,
		authorDate:    DefaultCommitTime,
		committerName: DefaultCommitterName,
		committerDate: DefaultCommitTime,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (cfg writeCommitConfig) signatures() (*git2go.Signature, *git2go.Signature) {
	return &git2go.Signature{
			Name:  cfg.authorName,
			Email: cfg.authorMail,
			When:  cfg.authorDate,
		}, &git2go.Signature{
			Name:  cfg.committerName,
			Email: DefaultCommitterMail,
			When:  cfg.committerDate,
		}
}

// CommitAll stages every change in the working directory, including deletions, and commits it on
// top of HEAD. HEAD is advanced to the new commit and the index is written so that the repository
// is left clean.
func CommitAll(tb testing.TB, repoPath string, opts ...WriteCommitOption) git.ObjectID {
	tb.Helper()

	cfg := newWriteCommitConfig(opts)
	repo := OpenRepo(tb, repoPath)

	index, err := repo.Index()
	require.NoError(tb, err)
	defer index.Free()

	require.NoError(tb, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(tb, index.UpdateAll([]string{"*"}, nil))
	require.NoError(tb, index.Write())

	treeOID, err := index.WriteTree()
	require.NoError(tb, err)

	var parents []*git2go.Oid
	unborn, err := repo.IsHeadUnborn()
	require.NoError(tb, err)
	if !unborn {
		head, err := repo.Head()
		require.NoError(tb, err)
		defer head.Free()
		parents = append(parents, head.Target())
	}
	for _, parent := range cfg.parents {
		oid, err := git2go.NewOid(parent.String())
		require.NoError(tb, err)
		parents = append(parents, oid)
	}

	author, committer := cfg.signatures()
	commitOID, err := repo.CreateCommitFromIds("HEAD", author, committer, cfg.message, treeOID, parents...)
	require.NoError(tb, err)

	return git.ObjectID(commitOID.String())
}

// WriteCommit writes a new commit into the object database without touching HEAD, the index or
// the working directory. Unless WithParents is given the commit has no parents.
func WriteCommit(tb testing.TB, repoPath string, opts ...WriteCommitOption) git.ObjectID {
	tb.Helper()

	cfg := newWriteCommitConfig(opts)
	repo := OpenRepo(tb, repoPath)

	treeOID := writeTree(tb, repo, cfg.treeEntries)

	parents := make([]*git2go.Oid, 0, len(cfg.parents))
	for _, parent := range cfg.parents {
		oid, err := git2go.NewOid(parent.String())
		require.NoError(tb, err)
		parents = append(parents, oid)
	}

	var refName string
	if cfg.branch != "" {
		refName = "refs/heads/" + cfg.branch
	}

	author, committer := cfg.signatures()
	commitOID, err := repo.CreateCommitFromIds(refName, author, committer, cfg.message, treeOID, parents...)
	require.NoError(tb, err)

	return git.ObjectID(commitOID.String())
}

// ReadCommit reads the commit the revision resolves to.
func ReadCommit(tb testing.TB, repoPath, revision string) git.Commit {
	tb.Helper()

	repo := OpenRepo(tb, repoPath)

	oid, err := git2go.NewOid(ResolveRevision(tb, repoPath, revision).String())
	require.NoError(tb, err)

	commit, err := repo.LookupCommit(oid)
	require.NoError(tb, err)
	defer commit.Free()

	parents := make([]git.ObjectID, 0, commit.ParentCount())
	for i := uint(0); i < commit.ParentCount(); i++ {
		parents = append(parents, git.ObjectID(commit.ParentId(i).String()))
	}

	author, committer := commit.Author(), commit.Committer()

	return git.Commit{
		ID:        git.ObjectID(commit.Id().String()),
		TreeID:    git.ObjectID(commit.TreeId().String()),
		ParentIDs: parents,
		Author:    git.Signature{Name: author.Name, Email: author.Email, When: author.When},
		Committer: git.Signature{Name: committer.Name, Email: committer.Email, When: committer.When},
		Message:   commit.Message(),
	}
}

// ReadTreeFiles reads all blobs of the tree of the given revision, keyed by their path.
func ReadTreeFiles(tb testing.TB, repoPath, revision string) map[string]string {
	tb.Helper()

	repo := OpenRepo(tb, repoPath)

	oid, err := git2go.NewOid(ReadCommit(tb, repoPath, revision).TreeID.String())
	require.NoError(tb, err)

	tree, err := repo.LookupTree(oid)
	require.NoError(tb, err)
	defer tree.Free()

	files := map[string]string{}
	require.NoError(tb, tree.Walk(func(dir string, entry *git2go.TreeEntry) error {
		if entry.Type != git2go.ObjectBlob {
			return nil
		}

		blob, err := repo.LookupBlob(entry.Id)
		if err != nil {
			return err
		}
		defer blob.Free()

		files[dir+entry.Name] = string(blob.Contents())
		return nil
	}))

	return files
}
