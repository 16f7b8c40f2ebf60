package corpus

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadTextFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "s.txt"), "\ufeffu1\tErste Rede\r\n\nu2\tmit\tTab [[x]]\n")

	table, err := ReadTextFile(path)
	if err != nil {
		t.Fatalf("ReadTextFile: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("rows = %d, want 2", table.Len())
	}
	if got := mustString(t, table, 0, ColumnID); got != "u1" {
		t.Fatalf("first ID = %q, want u1 (BOM must be stripped)", got)
	}
	if got := mustString(t, table, 0, ColumnText); got != "Erste Rede" {
		t.Fatalf("first text = %q", got)
	}
	if got := mustString(t, table, 1, ColumnText); got != "mit\tTab [[x]]" {
		t.Fatalf("second text = %q, want raw text after the first tab", got)
	}
}

func TestReadTextFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		line    int
	}{
		{name: "missing tab", content: lines("u1\tok", "no tab here"), want: "expected 2", line: 2},
		{name: "empty id", content: lines("\tspeech"), want: "empty ID", line: 1},
		{name: "invalid utf8", content: "u1\t\xff\xfe\n", want: "invalid UTF-8", line: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(t.TempDir(), "s.txt"), tt.content)
			_, err := ReadTextFile(path)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if perr.Line != tt.line {
				t.Fatalf("line = %d, want %d", perr.Line, tt.line)
			}
			if perr.Path != path || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestReadTextFileMissing(t *testing.T) {
	_, err := ReadTextFile(filepath.Join(t.TempDir(), "absent.txt"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestReadMetaFile(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "s-meta-en.tsv"), lines(
		"Text_ID\tID\tSpeaker_name\tSpeaker_party",
		"ParlaMint-AT_1\t u1 \tAlice\tSPÖ",
		"ParlaMint-AT_1\tu2\tBob\t",
	))

	table, err := ReadMetaFile(path)
	if err != nil {
		t.Fatalf("ReadMetaFile: %v", err)
	}
	if got := strings.Join(table.Columns, ","); got != "Text_ID,ID,Speaker_name,Speaker_party" {
		t.Fatalf("columns = %s", got)
	}
	if got := mustString(t, table, 0, ColumnID); got != "u1" {
		t.Fatalf("ID = %q, want trimmed u1", got)
	}
	if v, _ := table.Value(1, "Speaker_party"); v.Valid {
		t.Fatalf("empty cell should be null, got %q", v.String)
	}
}

func TestReadMetaFilePadsShortRows(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "s-meta-en.tsv"), lines(
		"ID\tSpeaker_name\tSpeaker_party",
		"u1\tAnn\tSPÖ",
		"u2\tBob",
		"u3",
	))

	table, err := ReadMetaFile(path)
	if err != nil {
		t.Fatalf("ReadMetaFile: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("rows = %d, want 3", table.Len())
	}
	if got := mustString(t, table, 1, "Speaker_name"); got != "Bob" {
		t.Fatalf("speaker = %q, want Bob", got)
	}
	if v, _ := table.Value(1, "Speaker_party"); v.Valid {
		t.Fatalf("missing trailing cell should be null, got %q", v.String)
	}
	for _, column := range []string{"Speaker_name", "Speaker_party"} {
		if v, _ := table.Value(2, column); v.Valid {
			t.Fatalf("%s of ID-only row should be null, got %q", column, v.String)
		}
	}
	if got := mustString(t, table, 2, ColumnID); got != "u3" {
		t.Fatalf("ID = %q, want u3", got)
	}
}

func TestReadMetaFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "empty file", content: "", want: "missing header"},
		{name: "no id column", content: lines("Speaker\tParty", "a\tb"), want: "no ID column"},
		{name: "duplicate header", content: lines("ID\tName\tName"), want: "duplicate header"},
		{name: "blank header cell", content: lines("ID\t\tName"), want: "column 2 is empty"},
		{name: "ragged row", content: lines("ID\tName", "u1\tAlice\textra"), want: "expected at most 2 fields, found 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(t.TempDir(), "m.tsv"), tt.content)
			_, err := ReadMetaFile(path)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
