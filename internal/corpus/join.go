package corpus

import (
	"database/sql"
	"fmt"
)

// JoinStats describes how a text table lined up with its metadata.
type JoinStats struct {
	TextRows int
	MetaRows int
	// Matched counts text rows that found a metadata row.
	Matched int
	// Unmatched counts text rows whose metadata columns are null.
	Unmatched int
	// MetaOnly counts metadata IDs that no text row refers to; those rows are dropped.
	MetaOnly int
	// DuplicateMeta counts metadata rows ignored because an earlier row had the same ID.
	DuplicateMeta int
}

// Join left-joins text (ID, text) onto meta by ID and cleans every text
// value. The result has one row per text row, in text order, with columns
// ID, text, then the metadata columns other than ID in header order.
func Join(text, meta *Table) (*Table, JoinStats, error) {
	stats := JoinStats{TextRows: text.Len(), MetaRows: meta.Len()}

	textID, textBody := text.ColumnIndex(ColumnID), text.ColumnIndex(ColumnText)
	if textID < 0 || textBody < 0 {
		return nil, stats, fmt.Errorf("text table must have %s and %s columns", ColumnID, ColumnText)
	}
	metaID := meta.ColumnIndex(ColumnID)
	if metaID < 0 {
		return nil, stats, fmt.Errorf("metadata table has no %s column", ColumnID)
	}
	if meta.HasColumn(ColumnText) {
		return nil, stats, fmt.Errorf("metadata column %q collides with the speech text column", ColumnText)
	}

	metaColumns := make([]int, 0, len(meta.Columns)-1)
	columns := []string{ColumnID, ColumnText}
	for i, name := range meta.Columns {
		if i == metaID {
			continue
		}
		metaColumns = append(metaColumns, i)
		columns = append(columns, name)
	}

	byID := make(map[string]int, meta.Len())
	for i, row := range meta.Rows {
		id := row.Values[metaID].String
		if _, exists := byID[id]; exists {
			stats.DuplicateMeta++
			continue
		}
		byID[id] = i
	}

	out := NewTable(columns...)
	out.Rows = make([]Row, 0, text.Len())
	referenced := make(map[string]struct{}, text.Len())
	for _, row := range text.Rows {
		id := row.Values[textID].String
		values := make([]sql.NullString, len(columns))
		values[0] = valid(id)
		values[1] = valid(CleanText(row.Values[textBody].String))

		if metaRow, ok := byID[id]; ok {
			stats.Matched++
			referenced[id] = struct{}{}
			for j, pos := range metaColumns {
				values[2+j] = meta.Rows[metaRow].Values[pos]
			}
		} else {
			stats.Unmatched++
		}
		out.Rows = append(out.Rows, Row{Index: len(out.Rows), Values: values})
	}
	stats.MetaOnly = len(byID) - len(referenced)

	return out, stats, nil
}

// JoinSessionFiles reads a speech text file and its metadata file and joins
// them with Join. Any read or join failure is returned as a *ParseError.
func JoinSessionFiles(textPath, metaPath string) (*Table, JoinStats, error) {
	text, err := ReadTextFile(textPath)
	if err != nil {
		return nil, JoinStats{}, err
	}
	meta, err := ReadMetaFile(metaPath)
	if err != nil {
		return nil, JoinStats{}, err
	}
	joined, stats, err := Join(text, meta)
	if err != nil {
		return nil, stats, &ParseError{Path: metaPath, Err: err}
	}
	return joined, stats, nil
}
