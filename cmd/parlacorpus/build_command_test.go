package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parlacorpus/internal/corpus"
	"parlacorpus/internal/testsupport"
)

func TestBuildExtractsLoadsAndStores(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCSVExport("corpus.csv"))
	env.writeCorpusArchive(t)

	out, logs, err := env.run(t, "--log-format", "json", "build", "--sessions")
	if err != nil {
		t.Fatalf("build: %v\nlogs:\n%s", err, logs)
	}
	requireContains(t, out, "2022/sessA.txt")
	requireContains(t, out, "processed")
	requireContains(t, out, "missing sessB-meta-en.tsv")
	requireNotContains(t, out, "00README")
	requireContains(t, out, "2 rows")
	requireContains(t, out, "Added by enrichment: Topic 1, compound_score")

	requireContains(t, logs, `"event_type":"archive_extracted"`)
	requireContains(t, logs, `"event_type":"session_skipped"`)
	requireContains(t, logs, `"file":"sessB.txt"`)
	requireContains(t, logs, `"event_type":"build_stored"`)
	requireComponents(t, logs, map[string]string{
		"archive_extracted": "build",
		"session_skipped":   "loader",
		"build_stored":      "build",
	})

	csv := readFile(t, env.cfg.Export.CSVPath)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d, want 3:\n%s", len(lines), csv)
	}
	if !strings.HasPrefix(lines[0], ",ID,text,") {
		t.Fatalf("csv header = %q", lines[0])
	}
	requireContains(t, lines[1], "0,u1,Hello world,")
	requireContains(t, lines[2], "1,u2,Bye,")

	if _, err := os.Stat(filepath.Join(testsupport.BaseDir(env.cfg), "logs", "parlacorpus.log")); err != nil {
		t.Fatalf("expected log file: %v", err)
	}

	st := testsupport.MustOpenStore(t, env.cfg)
	latest, err := st.LatestBuild(context.Background())
	if err != nil {
		t.Fatalf("LatestBuild: %v", err)
	}
	table, err := st.LoadTable(context.Background(), latest.ID)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if table.Len() != 2 || !table.HasColumn("Speaker_party") {
		t.Fatalf("stored table = %d rows, columns %v", table.Len(), table.Columns)
	}
}

func TestBuildReusesFreshExtraction(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeCorpusArchive(t)

	if _, logs, err := env.run(t, "build"); err != nil {
		t.Fatalf("first build: %v\n%s", err, logs)
	}
	_, logs, err := env.run(t, "--log-format", "json", "build", "--keep", "1")
	if err != nil {
		t.Fatalf("second build: %v\n%s", err, logs)
	}
	requireContains(t, logs, `"event_type":"extraction_reused"`)
	requireNotContains(t, logs, `"event_type":"archive_extracted"`)
	requireContains(t, logs, `"event_type":"builds_pruned"`)

	out, _, err := env.run(t, "builds", "--json")
	if err != nil {
		t.Fatalf("builds: %v", err)
	}
	var builds []buildOutput
	if err := json.Unmarshal([]byte(out), &builds); err != nil {
		t.Fatalf("decode builds: %v\n%s", err, out)
	}
	if len(builds) != 1 {
		t.Fatalf("builds after --keep 1 = %d", len(builds))
	}
	b := builds[0]
	if b.Rows != 2 || b.SessionsProcessed != 1 || b.SessionsSkipped != 1 || b.SessionsFailed != 0 {
		t.Fatalf("unexpected build record: %+v", b)
	}
	if b.Archive != env.cfg.Paths.Archive {
		t.Fatalf("archive = %q, want %q", b.Archive, env.cfg.Paths.Archive)
	}
}

func TestBuildFromBaseDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "loose")
	testsupport.WriteSession(t, dir, testsupport.Session{
		Name: "s1",
		Text: []string{"x1\tErste Rede", "x2\tZweite Rede [[Beifall]]"},
		Meta: []string{"ID\tSpeaker_party", "x2\tNEOS"},
	})

	out, logs, err := env.run(t, "build", "--base", dir)
	if err != nil {
		t.Fatalf("build --base: %v\n%s", err, logs)
	}
	requireContains(t, out, "processed\t1")
	requireContains(t, out, "Missing dashboard columns: Date")

	out, _, err = env.run(t, "builds", "show", "--json")
	if err != nil {
		t.Fatalf("builds show: %v", err)
	}
	var shown struct {
		Build    buildOutput     `json:"build"`
		Sessions []sessionOutput `json:"sessions"`
	}
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("decode show: %v\n%s", err, out)
	}
	if shown.Build.Archive != "" || shown.Build.BaseDir != dir {
		t.Fatalf("build = %+v", shown.Build)
	}
	if len(shown.Sessions) != 1 || shown.Sessions[0].Matched != 1 || shown.Sessions[0].Unmatched != 1 {
		t.Fatalf("sessions = %+v", shown.Sessions)
	}

	target := filepath.Join(env.baseDir, "export.csv")
	out, _, err = env.run(t, "builds", "export", "latest", "--csv", target)
	if err != nil {
		t.Fatalf("builds export: %v", err)
	}
	requireContains(t, out, "Wrote 2 rows")
	requireContains(t, readFile(t, target), "1,x2,Zweite Rede,NEOS")
}

func TestBuildWithoutValidSessions(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "empty")
	testsupport.WriteFile(t, filepath.Join(dir, "lonely.txt"), "u1\tNo metadata\n")

	_, _, err := env.run(t, "build", "--base", dir)
	if !errors.Is(err, corpus.ErrNoValidData) {
		t.Fatalf("expected ErrNoValidData, got %v", err)
	}

	out, _, err := env.run(t, "builds")
	if err != nil {
		t.Fatalf("builds: %v", err)
	}
	requireContains(t, out, "No builds stored")
}

func TestBuildMissingArchiveFailsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "build")
	if err == nil {
		t.Fatal("expected build without archive to fail")
	}
	requireContains(t, err.Error(), `preflight check "Archive" failed`)
}

func TestBuildPostgresNeedsDSN(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeCorpusArchive(t)
	_, _, err := env.run(t, "build", "--postgres")
	if err == nil {
		t.Fatal("expected --postgres without a DSN to fail")
	}
	requireContains(t, err.Error(), "postgres_dsn")
}

func TestBuildsShowUnknownBuild(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "builds", "show"); err == nil {
		t.Fatal("expected show without builds to fail")
	}
	if _, _, err := env.run(t, "builds", "show", "does-not-exist"); err == nil {
		t.Fatal("expected unknown build id to fail")
	}
	if _, _, err := env.run(t, "builds", "prune", "--keep", "0"); err == nil {
		t.Fatal("expected --keep 0 to be rejected")
	}
}

// requireComponents checks that every JSON log line carries at most one
// component key and that the named events were logged by the given component.
func requireComponents(t *testing.T, logs string, want map[string]string) {
	t.Helper()
	seen := map[string]string{}
	for _, line := range strings.Split(logs, "\n") {
		if !strings.HasPrefix(line, "{") {
			continue
		}
		if n := strings.Count(line, `"component":`); n > 1 {
			t.Fatalf("log line has %d component keys: %s", n, line)
		}
		var entry struct {
			EventType string `json:"event_type"`
			Component string `json:"component"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if entry.EventType != "" {
			seen[entry.EventType] = entry.Component
		}
	}
	for event, component := range want {
		if got := seen[event]; got != component {
			t.Fatalf("%s logged by %q, want %q", event, got, component)
		}
	}
}
