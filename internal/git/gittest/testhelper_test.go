package gittest

import (
	"testing"

	"gitlab.com/folio-vcs/folio/internal/testhelper"
)

func TestMain(m *testing.M) {
	testhelper.Run(m, testhelper.WithSetup(IsolateConfig))
}
