package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeCorpusArchive(t)

	out, logs, err := env.run(t, "extract")
	if err != nil {
		t.Fatalf("extract: %v\n%s", err, logs)
	}
	requireContains(t, out, "Extracted 4 files")
	requireContains(t, out, env.cfg.Paths.ExtractDir)

	meta := filepath.Join(env.cfg.Paths.CorpusDir, "2022", "sessA-meta-en.tsv")
	if _, err := os.Stat(meta); err != nil {
		t.Fatalf("expected extracted metadata file: %v", err)
	}
}

func TestExtractOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeCorpusArchive(t)
	dest := filepath.Join(env.baseDir, "elsewhere")

	out, _, err := env.run(t, "extract", "--dest", dest)
	if err != nil {
		t.Fatalf("extract --dest: %v", err)
	}
	requireContains(t, out, dest)
	if _, err := os.Stat(filepath.Join(dest, "ParlaMint-AT.txt", "2022", "sessB.txt")); err != nil {
		t.Fatalf("expected file under --dest: %v", err)
	}

	_, _, err = env.run(t, "extract", "--archive", filepath.Join(env.baseDir, "missing.tgz"))
	if err == nil {
		t.Fatal("expected missing archive to fail")
	}
	requireContains(t, err.Error(), "Archive")
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "check")
	if err == nil {
		t.Fatal("expected check to fail without an archive")
	}
	requireContains(t, out, "FAIL")

	env.writeCorpusArchive(t)
	out, _, err = env.run(t, "check")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Free space")
	requireNotContains(t, out, "FAIL")

	out, _, err = env.run(t, "check", "--skip-archive")
	if err != nil {
		t.Fatalf("check --skip-archive: %v", err)
	}
	requireNotContains(t, out, "Free space")
	requireContains(t, out, "Log directory")
}
