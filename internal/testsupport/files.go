package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Session describes one session's speech and metadata files.
type Session struct {
	// Name is the text file base name without extension.
	Name string
	// Text holds ID<TAB>text lines.
	Text []string
	// Meta holds the metadata header followed by rows, each tab-joined.
	// A nil Meta writes no metadata file.
	Meta []string
}

// WriteSession writes <dir>/<name>.txt and, when Meta is set,
// <dir>/<name>-meta-en.tsv.
func WriteSession(t testing.TB, dir string, session Session) {
	t.Helper()

	WriteFile(t, filepath.Join(dir, session.Name+".txt"), joinLines(session.Text))
	if session.Meta != nil {
		WriteFile(t, filepath.Join(dir, session.Name+"-meta-en.tsv"), joinLines(session.Meta))
	}
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
