package testhelper

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gitlab.com/folio-vcs/folio/internal/log"
)

// NewLogger returns a logger that records the log output and
// prints it out only if the test fails.
func NewLogger(tb testing.TB) log.Logger {
	logOutput := &bytes.Buffer{}
	logger := logrus.New() //nolint:forbidigo
	logger.Out = logOutput
	logger.SetLevel(logrus.DebugLevel)

	tb.Cleanup(func() {
		if !tb.Failed() {
			return
		}

		tb.Logf("Recorded logs:\n%s\n", logOutput)
	})

	return log.FromLogrusEntry(logrus.NewEntry(logger))
}

// NewCapturingLogger returns a logger together with a hook that records every entry so that
// tests can assert on what has been logged.
func NewCapturingLogger(tb testing.TB) (log.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	tb.Cleanup(hook.Reset)
	return log.FromLogrusEntry(logrus.NewEntry(logger)), hook
}
