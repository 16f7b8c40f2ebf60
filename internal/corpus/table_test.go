package corpus

import (
	"database/sql"
	"strings"
	"testing"
)

func TestTableAppendAndRecord(t *testing.T) {
	table := NewTable(ColumnID, ColumnText, "Speaker_name")
	if err := table.Append(valid("u1"), valid("hi")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := table.Append(valid("u2"), valid("a"), valid("b"), valid("c")); err == nil {
		t.Fatal("expected error for too many values")
	}

	record := table.Record(0)
	if record[ColumnID] != "u1" || record[ColumnText] != "hi" {
		t.Fatalf("record = %v", record)
	}
	if _, ok := record["Speaker_name"]; ok {
		t.Fatal("null cells must be omitted from records")
	}
	if table.Record(5) != nil {
		t.Fatal("out of range record should be nil")
	}
	if _, ok := table.Value(0, "missing"); ok {
		t.Fatal("unknown column should not resolve")
	}
}

func TestConcatUnionsColumnsAndReindexes(t *testing.T) {
	a := NewTable(ColumnID, ColumnText, "Speaker_name")
	_ = a.Append(valid("a1"), valid("x"), valid("Alice"))
	_ = a.Append(valid("a2"), valid("y"), valid("Bob"))
	b := NewTable(ColumnID, ColumnText, "Topic")
	_ = b.Append(valid("b1"), valid("z"), valid("Budget"))

	out := Concat(a, nil, b)
	if got := strings.Join(out.Columns, ","); got != "ID,text,Speaker_name,Topic" {
		t.Fatalf("columns = %s", got)
	}
	if out.Len() != 3 {
		t.Fatalf("rows = %d, want 3", out.Len())
	}
	for i, row := range out.Rows {
		if row.Index != i {
			t.Fatalf("row %d index = %d", i, row.Index)
		}
	}
	if v, _ := out.Value(2, "Speaker_name"); v != (sql.NullString{}) {
		t.Fatalf("missing column should be null, got %+v", v)
	}
	if got := mustString(t, out, 2, "Topic"); got != "Budget" {
		t.Fatalf("Topic = %q", got)
	}
	if got := mustString(t, out, 0, ColumnID); got != "a1" {
		t.Fatalf("first ID = %q, traversal order lost", got)
	}
}

func TestConcatEmpty(t *testing.T) {
	out := Concat()
	if out.Len() != 0 || len(out.Columns) != 0 {
		t.Fatalf("expected empty table, got %d rows %v", out.Len(), out.Columns)
	}
}
