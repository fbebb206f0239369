package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteSchema writes a schema document into a temporary directory and
// returns its absolute path. It fails the test immediately on error.
func WriteSchema(t *testing.T, content string) string {
	t.Helper()

	path, err := filepath.Abs(filepath.Join(t.TempDir(), "schema.yaml"))
	require.NoError(t, err, "Failed to get absolute path for schema")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write schema")
	return path
}

// FixturePath resolves a file under the repository testdata directory from
// a package depth of levels below the module root.
func FixturePath(levels int, name string) string {
	parts := make([]string, 0, levels+2)
	for i := 0; i < levels; i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, "testdata", name)
	return filepath.Join(parts...)
}
