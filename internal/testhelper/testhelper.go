package testhelper

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type runConfig struct {
	setup func() error
}

// RunOption is an option that can be passed to Run.
type RunOption func(*runConfig)

// WithSetup allows the caller of Run to pass a setup function that will be called after global
// test state has been configured.
func WithSetup(setup func() error) RunOption {
	return func(cfg *runConfig) {
		cfg.setup = setup
	}
}

// Run sets up required testing state and executes the given test suite. It verifies that no
// Goroutines have leaked once all tests have passed.
func Run(m *testing.M, opts ...RunOption) {
	os.Exit(run(m, opts...))
}

func run(m *testing.M, opts ...RunOption) int {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.setup != nil {
		if err := cfg.setup(); err != nil {
			fmt.Fprintf(os.Stderr, "error calling setup function: %v\n", err)
			return 1
		}
	}

	if code := m.Run(); code != 0 {
		return code
	}

	if err := goleak.Find(); err != nil {
		fmt.Fprintf(os.Stderr, "goroutines have leaked: %v\n", err)
		return 1
	}

	return 0
}

// Context returns that gets canceled at the end of the test.
func Context(tb testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	tb.Cleanup(cancel)
	return ctx
}

// MustReadFile returns the content of a file or fails at once.
func MustReadFile(tb testing.TB, filename string) []byte {
	tb.Helper()

	content, err := os.ReadFile(filename)
	if err != nil {
		tb.Fatal(err)
	}

	return content
}

// MustClose calls Close() on the Closer and fails the test in case it returns
// an error. This function is useful when closing via `defer`, as a simple
// `defer require.NoError(t, closer.Close())` would cause `closer.Close()` to
// be executed early already.
func MustClose(tb testing.TB, closer io.Closer) {
	require.NoError(tb, closer.Close())
}

// WriteFiles writes a map of files to the filesystem where the map key is the
// filename relative to root and the value is one of string or []byte.
func WriteFiles(tb testing.TB, root string, files map[string]any) {
	tb.Helper()

	require.DirExists(tb, root)

	for name, value := range files {
		path := filepath.Join(root, name)

		require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o755))

		switch content := value.(type) {
		case string:
			require.NoError(tb, os.WriteFile(path, []byte(content), 0o644))
		case []byte:
			require.NoError(tb, os.WriteFile(path, content, 0o644))
		default:
			tb.Fatalf("WriteFiles: %q: unsupported file content type %T", path, value)
		}
	}
}
