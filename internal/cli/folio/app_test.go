package folio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/gittest"
)

func setupHistory(tb testing.TB) (string, git.ObjectID, git.ObjectID) {
	tb.Helper()

	repoPath := gittest.InitRepo(tb)
	gittest.WriteFiles(tb, repoPath, map[string]string{"file_a.txt": "A1"})
	c1 := gittest.CommitAll(tb, repoPath, gittest.WithMessage("C1"))
	gittest.WriteFiles(tb, repoPath, map[string]string{"file_a.txt": "A2", "file_b.txt": "B1"})
	c2 := gittest.CommitAll(tb, repoPath, gittest.WithMessage("C2"))

	return repoPath, c1, c2
}

func TestApp_version(t *testing.T) {
	t.Parallel()

	result := runApp(t, "", "--version")
	require.NoError(t, result.err)
	require.Regexp(t, `^folio, version `, result.stdout)
}

func TestApp_revert(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, identityConfig)
	repoPath, _, c2 := setupHistory(t)

	result := runApp(t, "", "--config", configPath, "-C", repoPath, "revert", c2.String())
	require.NoError(t, result.err)

	head := gittest.Head(t, repoPath)
	require.Equal(t, "["+head.String()+"] Reverted commit "+c2.Abbreviate(8)+"\n", result.stdout)
	require.Contains(t, result.stderr, "operation finished")
	require.Equal(t, map[string]string{"file_a.txt": "A1"}, gittest.ReadTreeFiles(t, repoPath, "HEAD"))
}

func TestApp_revertConflict(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, identityConfig)
	repoPath, _, c2 := setupHistory(t)
	gittest.WriteFiles(t, repoPath, map[string]string{"file_b.txt": "B2"})
	c3 := gittest.CommitAll(t, repoPath, gittest.WithMessage("C3"))

	result := runApp(t, "", "--config", configPath, "-C", repoPath, "revert", c2.String())
	require.Equal(t, 2, result.exitCode)
	require.EqualError(t, result.err, "revert: could not apply due to conflicts in file_b.txt")
	require.Empty(t, result.stdout)
	require.Equal(t, c3, gittest.Head(t, repoPath))
}

func TestApp_cherryPick(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, identityConfig)

	repoPath := gittest.InitRepo(t)
	gittest.WriteFiles(t, repoPath, map[string]string{"a.txt": "a"})
	base := gittest.CommitAll(t, repoPath, gittest.WithMessage("base"))
	left := gittest.WriteCommit(t, repoPath, gittest.WithParents(base), gittest.WithTreeEntries(
		gittest.TreeEntry{Path: "a.txt", Content: "a"},
		gittest.TreeEntry{Path: "left.txt", Content: "left"},
	))
	right := gittest.WriteCommit(t, repoPath, gittest.WithParents(base), gittest.WithTreeEntries(
		gittest.TreeEntry{Path: "a.txt", Content: "a"},
		gittest.TreeEntry{Path: "right.txt", Content: "right"},
	))
	mergeCommit := gittest.WriteCommit(t, repoPath, gittest.WithParents(left, right), gittest.WithTreeEntries(
		gittest.TreeEntry{Path: "a.txt", Content: "a"},
		gittest.TreeEntry{Path: "left.txt", Content: "left"},
		gittest.TreeEntry{Path: "right.txt", Content: "right"},
	))

	result := runApp(t, "", "--config", configPath, "-C", repoPath, "cherry-pick", mergeCommit.String())
	require.Equal(t, 1, result.exitCode)
	require.Equal(t, base, gittest.Head(t, repoPath))

	result = runApp(t, "", "--config", configPath, "-C", repoPath, "cherry-pick", "--mainline", "1", mergeCommit.String())
	require.NoError(t, result.err)
	require.Equal(t, map[string]string{"a.txt": "a", "right.txt": "right"}, gittest.ReadTreeFiles(t, repoPath, "HEAD"))
}

func TestApp_save(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, identityConfig)
	repoPath := gittest.InitRepo(t)
	gittest.WriteFiles(t, repoPath, map[string]string{"a.txt": "a"})

	result := runApp(t, "", "--config", configPath, "-C", repoPath, "save", "--message", "add a", "a.txt", "missing.txt")
	require.NoError(t, result.err)

	head := gittest.Head(t, repoPath)
	require.Equal(t, "["+gittest.DefaultBranch+" "+head.Abbreviate(8)+"] saved commit\n", result.stdout)
	require.Contains(t, result.stderr, "warning: ")
	require.Equal(t, "add a", gittest.ReadCommit(t, repoPath, "HEAD").Message)

	result = runApp(t, "", "--config", configPath, "-C", repoPath, "save", "--message", "again")
	require.Equal(t, 3, result.exitCode)
	require.EqualError(t, result.err, "no changes to save")
}

func TestApp_status(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, identityConfig)
	repoPath, _, c2 := setupHistory(t)

	result := runApp(t, "", "--config", configPath, "-C", repoPath, "status")
	require.NoError(t, result.err)
	require.Equal(t, "On branch "+gittest.DefaultBranch+" at "+c2.Abbreviate(8)+"\nWorking tree clean\n", result.stdout)

	gittest.WriteFiles(t, repoPath, map[string]string{"file_a.txt": "changed"})

	result = runApp(t, "", "--config", configPath, "-C", repoPath, "status")
	require.NoError(t, result.err)
	require.Equal(t, "On branch "+gittest.DefaultBranch+" at "+c2.Abbreviate(8)+"\nWorking tree has uncommitted changes\n", result.stdout)
}

func TestApp_arguments(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		desc string
		args []string
	}{
		{desc: "revert without commit", args: []string{"revert"}},
		{desc: "revert with two commits", args: []string{"revert", "HEAD", "HEAD~"}},
		{desc: "cherry-pick without commit", args: []string{"cherry-pick"}},
		{desc: "status with argument", args: []string{"status", "extra"}},
	} {
		tc := tc

		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			result := runApp(t, "", tc.args...)
			require.Equal(t, 1, result.exitCode)
			require.ErrorContains(t, result.err, "expected ")
		})
	}
}

func TestApp_invalidConfig(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, "abbrev_length = 2\n")
	repoPath, _, _ := setupHistory(t)

	result := runApp(t, "", "--config", configPath, "-C", repoPath, "status")
	require.Equal(t, 1, result.exitCode)
	require.EqualError(t, result.err, "invalid configuration:\nabbrev_length: not in range: 2 out of [4, 40]")
}

func TestApp_metricsTextfile(t *testing.T) {
	t.Parallel()

	textfile := filepath.Join(t.TempDir(), "folio.prom")
	configPath := writeConfig(t, identityConfig+"\n[metrics]\ntextfile = \""+textfile+"\"\n")
	repoPath, _, _ := setupHistory(t)

	result := runApp(t, "", "--config", configPath, "-C", repoPath, "status")
	require.NoError(t, result.err)

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	require.Contains(t, string(metrics), `folio_operations_total{operation="status",status="success"} 1`)
}
