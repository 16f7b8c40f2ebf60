package corpus

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestJoinSessionFilesLeftJoin(t *testing.T) {
	dir := t.TempDir()
	textPath := writeFile(t, filepath.Join(dir, "s.txt"), lines(
		"u1\tHello [[cough]] world",
		"u2\tno metadata",
		"u3\t[[Beifall]]",
	))
	metaPath := writeFile(t, filepath.Join(dir, "s-meta-en.tsv"), lines(
		"ID\tSpeaker_name\tSpeaker_party",
		"u3\tCarol\tGrüne",
		"u1\tAlice\tSPÖ",
		"u1\tShadow\tFPÖ",
		"u9\tNobody\tNEOS",
	))

	table, stats, err := JoinSessionFiles(textPath, metaPath)
	if err != nil {
		t.Fatalf("JoinSessionFiles: %v", err)
	}

	if got := strings.Join(table.Columns, ","); got != "ID,text,Speaker_name,Speaker_party" {
		t.Fatalf("columns = %s", got)
	}
	if table.Len() != 3 {
		t.Fatalf("rows = %d, want 3", table.Len())
	}
	if got := mustString(t, table, 0, ColumnText); got != "Hello world" {
		t.Fatalf("text = %q, want cleaned text", got)
	}
	if got := mustString(t, table, 0, "Speaker_name"); got != "Alice" {
		t.Fatalf("speaker = %q, first metadata row must win", got)
	}
	if v, _ := table.Value(1, "Speaker_name"); v.Valid {
		t.Fatalf("unmatched row should have null metadata, got %q", v.String)
	}
	if got := mustString(t, table, 2, ColumnText); got != "" {
		t.Fatalf("annotation-only text = %q, want empty", got)
	}
	for i, row := range table.Rows {
		if row.Index != i {
			t.Fatalf("row %d has index %d", i, row.Index)
		}
	}

	want := JoinStats{TextRows: 3, MetaRows: 4, Matched: 2, Unmatched: 1, MetaOnly: 1, DuplicateMeta: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestJoinRejectsTextColumnInMetadata(t *testing.T) {
	dir := t.TempDir()
	textPath := writeFile(t, filepath.Join(dir, "s.txt"), lines("u1\thi"))
	metaPath := writeFile(t, filepath.Join(dir, "s-meta-en.tsv"), lines("ID\ttext", "u1\tclash"))

	_, _, err := JoinSessionFiles(textPath, metaPath)
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Path != metaPath {
		t.Fatalf("expected ParseError for %s, got %v", metaPath, err)
	}
}

func TestJoinRequiresIDColumns(t *testing.T) {
	text := NewTable(ColumnID, ColumnText)
	if _, _, err := Join(text, NewTable("Speaker")); err == nil {
		t.Fatal("expected error for metadata without ID")
	}
	if _, _, err := Join(NewTable("other"), NewTable(ColumnID)); err == nil {
		t.Fatal("expected error for text table without ID/text")
	}
}

// sessionPair writes a text file with the given IDs and a metadata file with
// metaIDs, every metadata cell filled.
func sessionPair(t *testing.T, dir string, textIDs, metaIDs []string) (string, string) {
	var text, meta strings.Builder
	for _, id := range textIDs {
		fmt.Fprintf(&text, "%s\tspeech of %s\n", id, id)
	}
	meta.WriteString("ID\tSpeaker_name\tDate\n")
	for _, id := range metaIDs {
		fmt.Fprintf(&meta, "%s\tspeaker-%s\t2022-01-01\n", id, id)
	}
	return writeFile(t, filepath.Join(dir, "s.txt"), text.String()),
		writeFile(t, filepath.Join(dir, "s-meta-en.tsv"), meta.String())
}

func distinctIDs(prefix string) *rapid.Generator[[]string] {
	return rapid.SliceOfNDistinct(
		rapid.Custom(func(t *rapid.T) string {
			return fmt.Sprintf("%s%d", prefix, rapid.IntRange(0, 500).Draw(t, "n"))
		}),
		1, 20, rapid.ID[string],
	)
}

func TestJoinDisjointIDsYieldNullMetadata(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		textIDs := distinctIDs("t").Draw(rt, "text")
		metaIDs := distinctIDs("m").Draw(rt, "meta")
		textPath, metaPath := sessionPair(t, dir, textIDs, metaIDs)

		table, stats, err := JoinSessionFiles(textPath, metaPath)
		if err != nil {
			rt.Fatalf("JoinSessionFiles: %v", err)
		}
		if table.Len() != len(textIDs) {
			rt.Fatalf("rows = %d, want %d", table.Len(), len(textIDs))
		}
		for _, column := range []string{"Speaker_name", "Date"} {
			for i := range table.Rows {
				if v, _ := table.Value(i, column); v.Valid {
					rt.Fatalf("row %d column %s = %q, want null", i, column, v.String)
				}
			}
		}
		if stats.Matched != 0 || stats.MetaOnly != len(metaIDs) {
			rt.Fatalf("stats = %+v", stats)
		}
	})
}

func TestJoinOverlappingIDsFillMetadata(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		textIDs := distinctIDs("u").Draw(rt, "text")
		metaIDs := rapid.Permutation(textIDs).Draw(rt, "meta")
		textPath, metaPath := sessionPair(t, dir, textIDs, metaIDs)

		table, _, err := JoinSessionFiles(textPath, metaPath)
		if err != nil {
			rt.Fatalf("JoinSessionFiles: %v", err)
		}
		if table.Len() != len(textIDs) {
			rt.Fatalf("rows = %d, want %d", table.Len(), len(textIDs))
		}
		for i, row := range table.Rows {
			for pos, v := range row.Values {
				if !v.Valid {
					rt.Fatalf("row %d column %s is null", i, table.Columns[pos])
				}
			}
			if got := mustString(t, table, i, ColumnID); got != textIDs[i] {
				rt.Fatalf("row %d ID = %s, want text order %s", i, got, textIDs[i])
			}
		}
	})
}

func TestJoinSessionFilesKeepsShortMetadataRows(t *testing.T) {
	dir := t.TempDir()
	textPath := writeFile(t, filepath.Join(dir, "s.txt"), lines("u1\tGuten Tag", "u2\tDanke"))
	metaPath := writeFile(t, filepath.Join(dir, "s-meta-en.tsv"), lines(
		"ID\tSpeaker\tParty",
		"u1\tAnn\tSPÖ",
		"u2\tBob",
	))

	table, stats, err := JoinSessionFiles(textPath, metaPath)
	if err != nil {
		t.Fatalf("JoinSessionFiles: %v", err)
	}
	if table.Len() != 2 || stats.Matched != 2 {
		t.Fatalf("rows = %d, stats = %+v", table.Len(), stats)
	}
	if got := mustString(t, table, 1, "Speaker"); got != "Bob" {
		t.Fatalf("speaker = %q, want Bob", got)
	}
	if v, _ := table.Value(1, "Party"); v.Valid {
		t.Fatalf("party should be null, got %q", v.String)
	}
}
