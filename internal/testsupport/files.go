package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteText writes content to path, creating parent directories, and returns
// the path.
func WriteText(t testing.TB, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteWheel places a small placeholder wheel named filename in dir and
// returns its path. The content is the filename so copies can be compared.
func WriteWheel(t testing.TB, dir, filename string) string {
	t.Helper()
	return WriteText(t, filepath.Join(dir, filename), filename)
}
