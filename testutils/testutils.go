// Package testutils holds small helpers shared by tests.
package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteListFile writes an identifier list file into a test temp dir
// and returns its path.
func WriteListFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.list")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write list file: %v", err)
	}
	return path
}
