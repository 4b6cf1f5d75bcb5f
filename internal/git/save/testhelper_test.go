package save

import (
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/repository"
	"gitlab.com/folio-vcs/folio/internal/git/synthesize"
	"gitlab.com/folio-vcs/folio/internal/testhelper"
)

func TestMain(m *testing.M) {
	testhelper.Run(m, testhelper.WithSetup(repository.DisableGlobalConfig))
}

var (
	saveTime = time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	operator = git.NewSignature("Jane Doe", "jane@example.com", saveTime)
)

func newOperation(tb testing.TB, repoPath string) *Operation {
	tb.Helper()

	repo, err := repository.Open(repoPath)
	require.NoError(tb, err)
	tb.Cleanup(func() { testhelper.MustClose(tb, repo) })

	synthesizer := synthesize.NewSynthesizer(repo, operator, synthesize.WithClock(func() time.Time {
		return saveTime
	}))

	return NewOperation(repo, synthesizer, git.DefaultAbbrevLength)
}

func mustOid(tb testing.TB, id git.ObjectID) *git2go.Oid {
	tb.Helper()

	oid, err := git2go.NewOid(id.String())
	require.NoError(tb, err)

	return oid
}

func requireSignature(tb testing.TB, expected, actual git.Signature) {
	tb.Helper()

	require.Equal(tb, expected.Name, actual.Name)
	require.Equal(tb, expected.Email, actual.Email)
	require.True(tb, expected.When.Equal(actual.When), "expected %s, got %s", expected.When, actual.When)
}
