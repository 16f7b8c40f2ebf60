package corpus

import (
	"database/sql"
	"fmt"
)

const (
	// ColumnID is the identifier column shared by text and metadata files.
	ColumnID = "ID"
	// ColumnText holds the cleaned speech text.
	ColumnText = "text"
)

// Row is one utterance. Values line up with Table.Columns; a null value is a
// metadata field with no matching metadata row (or an empty metadata cell).
type Row struct {
	Index  int
	Values []sql.NullString
}

// Table is an in-memory tabular result with named string columns.
type Table struct {
	Columns []string
	Rows    []Row

	positions map[string]int
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.reindexColumns()
	return t
}

func (t *Table) reindexColumns() {
	t.positions = make(map[string]int, len(t.Columns))
	for i, name := range t.Columns {
		if _, exists := t.positions[name]; !exists {
			t.positions[name] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	if t.positions == nil {
		t.reindexColumns()
	}
	if pos, ok := t.positions[name]; ok {
		return pos
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Append adds a row whose index is the current row count. Missing trailing
// values are null.
func (t *Table) Append(values ...sql.NullString) error {
	if len(values) > len(t.Columns) {
		return fmt.Errorf("row has %d values for %d columns", len(values), len(t.Columns))
	}
	row := Row{Index: len(t.Rows), Values: make([]sql.NullString, len(t.Columns))}
	copy(row.Values, values)
	t.Rows = append(t.Rows, row)
	return nil
}

// Value returns the cell at row i in the named column. The second result is
// false when the column does not exist or i is out of range.
func (t *Table) Value(i int, column string) (sql.NullString, bool) {
	pos := t.ColumnIndex(column)
	if pos < 0 || i < 0 || i >= t.Len() {
		return sql.NullString{}, false
	}
	return t.Rows[i].Values[pos], true
}

// Record returns row i as a column-name keyed map; null cells are omitted.
func (t *Table) Record(i int) map[string]string {
	if i < 0 || i >= t.Len() {
		return nil
	}
	out := make(map[string]string, len(t.Columns))
	for pos, name := range t.Columns {
		if v := t.Rows[i].Values[pos]; v.Valid {
			out[name] = v.String
		}
	}
	return out
}

// Concat stacks tables in order. The result's columns are the union of the
// input columns in first-seen order; cells a table does not have are null.
// Row indices are reassigned 0..n-1.
func Concat(tables ...*Table) *Table {
	var columns []string
	seen := map[string]struct{}{}
	total := 0
	for _, t := range tables {
		if t == nil {
			continue
		}
		total += len(t.Rows)
		for _, name := range t.Columns {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			columns = append(columns, name)
		}
	}

	out := NewTable(columns...)
	out.Rows = make([]Row, 0, total)
	for _, t := range tables {
		if t == nil {
			continue
		}
		mapping := make([]int, len(t.Columns))
		for i, name := range t.Columns {
			mapping[i] = out.ColumnIndex(name)
		}
		for _, row := range t.Rows {
			values := make([]sql.NullString, len(columns))
			for i, v := range row.Values {
				values[mapping[i]] = v
			}
			out.Rows = append(out.Rows, Row{Index: len(out.Rows), Values: values})
		}
	}
	return out
}

func nullable(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func valid(value string) sql.NullString {
	return sql.NullString{String: value, Valid: true}
}
