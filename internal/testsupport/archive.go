package testsupport

import (
	"archive/tar"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// WriteArchive builds a tar.gz at path from name -> content entries. Names
// ending in "/" become directory entries; parent directories are added
// automatically.
func WriteArchive(t testing.TB, path string, entries map[string]string) {
	t.Helper()

	names := make([]string, 0, len(entries))
	dirs := map[string]struct{}{}
	for name := range entries {
		names = append(names, name)
		for dir := filepath.ToSlash(filepath.Dir(strings.TrimSuffix(name, "/"))); dir != "." && dir != "/"; dir = filepath.ToSlash(filepath.Dir(dir)) {
			dirs[dir+"/"] = struct{}{}
		}
	}
	for dir := range dirs {
		if _, ok := entries[dir]; !ok {
			names = append(names, dir)
		}
	}
	sort.Strings(names)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, name := range names {
		if strings.HasSuffix(name, "/") {
			if err := tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
				t.Fatalf("write dir header %s: %v", name, err)
			}
			continue
		}
		body := entries[name]
		if err := tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(body))}); err != nil {
			t.Fatalf("write header %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("write body %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
}
