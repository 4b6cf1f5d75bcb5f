package operations

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	git2go "github.com/libgit2/git2go/v34"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gitlab.com/folio-vcs/folio/internal/folio/config"
	"gitlab.com/folio-vcs/folio/internal/git"
	"gitlab.com/folio-vcs/folio/internal/git/gittest"
	"gitlab.com/folio-vcs/folio/internal/signature"
	"gitlab.com/folio-vcs/folio/internal/testhelper"
	"gitlab.com/gitlab-org/labkit/correlation"
)

func TestService_logging(t *testing.T) {
	t.Parallel()

	ctx := correlation.ContextWithCorrelation(testhelper.Context(t), "correlation-id")
	setup := setupService(t)
	repoPath, _, c2 := setupHistory(t)

	response, err := setup.service.Revert(ctx, RevertRequest{RepositoryPath: repoPath, Revision: c2.Revision()})
	require.NoError(t, err)

	entry := setup.hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.InfoLevel, entry.Level)
	require.Equal(t, "operation finished", entry.Message)
	require.Equal(t, "revert", entry.Data["operation"])
	require.Equal(t, repoPath, entry.Data["repository"])
	require.Equal(t, "correlation-id", entry.Data["correlation_id"])
	require.Equal(t, c2.String(), entry.Data["reverted_commit_id"])
	require.Equal(t, response.CommitID.String(), entry.Data["commit_id"])
}

func TestService_loggingFailure(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	setup := setupService(t)
	repoPath, _, _ := setupHistory(t)

	_, err := setup.service.Revert(ctx, RevertRequest{RepositoryPath: repoPath, Revision: "missing"})
	require.Error(t, err)

	entry := setup.hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Equal(t, "operation failed", entry.Message)
	require.Equal(t, "not_found", entry.Data["status"])
	require.Equal(t, err, entry.Data[logrus.ErrorKey])
	require.NotEmpty(t, entry.Data["correlation_id"])
}

func TestService_signing(t *testing.T) {
	t.Parallel()

	entity, err := openpgp.NewEntity("Folio", "", "folio@example.com", &packet.Config{
		Algorithm: packet.PubKeyAlgoEdDSA,
	})
	require.NoError(t, err)

	var key bytes.Buffer
	writer, err := armor.Encode(&key, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.SerializePrivate(writer, nil))
	require.NoError(t, writer.Close())

	keyPath := filepath.Join(t.TempDir(), "signing_key.gpg")
	require.NoError(t, os.WriteFile(keyPath, key.Bytes(), 0o600))

	ctx := testhelper.Context(t)
	setup := setupService(t, func(cfg *config.Cfg) {
		cfg.Signing.KeyPath = keyPath
	})
	repoPath, _, c2 := setupHistory(t)

	response, err := setup.service.Revert(ctx, RevertRequest{RepositoryPath: repoPath, Revision: c2.Revision()})
	require.NoError(t, err)

	oid, err := git2go.NewOid(response.CommitID.String())
	require.NoError(t, err)

	commit, err := gittest.OpenRepo(t, repoPath).LookupCommit(oid)
	require.NoError(t, err)
	defer commit.Free()

	commitSignature, signedData, err := commit.ExtractSignature()
	require.NoError(t, err)
	require.NoError(t, signature.VerifyGPG(openpgp.EntityList{entity}, []byte(commitSignature), []byte(signedData)))
}

func TestService_invalidSigningKey(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "signing_key.gpg")
	require.NoError(t, os.WriteFile(keyPath, []byte("garbage"), 0o600))

	setup := setupService(t, func(cfg *config.Cfg) {
		cfg.Signing.KeyPath = keyPath
	})
	repoPath, _, c2 := setupHistory(t)
	before := gittest.ReadRepositoryState(t, repoPath)

	_, err := setup.service.Revert(testhelper.Context(t), RevertRequest{RepositoryPath: repoPath, Revision: c2.Revision()})
	require.ErrorContains(t, err, "loading signing key: ")
	gittest.RequireRepositoryState(t, repoPath, before)
}

func TestService_cancelledContext(t *testing.T) {
	t.Parallel()

	setup := setupService(t)
	repoPath, _, c2 := setupHistory(t)
	before := gittest.ReadRepositoryState(t, repoPath)

	ctx, cancel := context.WithCancel(testhelper.Context(t))
	cancel()

	_, err := setup.service.Revert(ctx, RevertRequest{RepositoryPath: repoPath, Revision: c2.Revision()})
	require.ErrorIs(t, err, context.Canceled)
	gittest.RequireRepositoryState(t, repoPath, before)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	ctx := testhelper.Context(t)
	setup := setupService(t)

	repoPath := gittest.InitRepo(t)

	status, err := setup.service.Status(ctx, repoPath)
	require.NoError(t, err)
	require.Equal(t, StatusResponse{
		Branch: gittest.DefaultBranch,
		Unborn: true,
		State:  git.StateIdle,
		Clean:  true,
	}, status)

	gittest.WriteFiles(t, repoPath, map[string]string{"a.txt": "a\n"})
	head := gittest.CommitAll(t, repoPath)
	gittest.WriteFiles(t, repoPath, map[string]string{"a.txt": "changed\n"})

	status, err = setup.service.Status(ctx, repoPath)
	require.NoError(t, err)
	require.Equal(t, StatusResponse{
		Branch:    gittest.DefaultBranch,
		Head:      head,
		ShortHead: head.Abbreviate(8),
		State:     git.StateIdle,
	}, status)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	metrics.observe("revert", 0, nil)
	metrics.rollback("revert")

	require.Equal(t, 3, testutil.CollectAndCount(metrics))
	require.NoError(t, testutil.CollectAndCompare(metrics, bytes.NewBufferString(`
# HELP folio_operations_total Total number of operations by their final status
# TYPE folio_operations_total counter
folio_operations_total{operation="revert",status="success"} 1
# HELP folio_rollbacks_total Total number of transactions that have been rolled back
# TYPE folio_rollbacks_total counter
folio_rollbacks_total{operation="revert"} 1
`), "folio_operations_total", "folio_rollbacks_total"))
}
