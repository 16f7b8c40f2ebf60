package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func lines(rows ...string) string {
	return strings.Join(rows, "\n") + "\n"
}

func mustString(t *testing.T, table *Table, row int, column string) string {
	t.Helper()
	v, ok := table.Value(row, column)
	if !ok {
		t.Fatalf("no value at row %d column %q (columns %v, rows %d)", row, column, table.Columns, table.Len())
	}
	if !v.Valid {
		t.Fatalf("row %d column %q is null", row, column)
	}
	return v.String
}
