package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"parlacorpus/internal/corpus"
)

// PostgresSink replaces the contents of one Postgres table with a corpus.
type PostgresSink struct {
	DSN   string
	Table string
}

// Write creates the target table when missing, then truncates it and copies
// every row in a single transaction. Metadata columns other than ID and text
// go into a JSONB object; null cells are left out of it. It returns the
// number of rows copied.
func (s PostgresSink) Write(ctx context.Context, table *corpus.Table) (int64, error) {
	if strings.TrimSpace(s.DSN) == "" {
		return 0, errors.New("postgres DSN is required")
	}
	if strings.TrimSpace(s.Table) == "" {
		return 0, errors.New("postgres table name is required")
	}
	idPos, textPos := table.ColumnIndex(corpus.ColumnID), table.ColumnIndex(corpus.ColumnText)
	if idPos < 0 || textPos < 0 {
		return 0, fmt.Errorf("table lacks %s/%s columns", corpus.ColumnID, corpus.ColumnText)
	}

	conn, err := pgx.Connect(ctx, s.DSN)
	if err != nil {
		return 0, fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(context.Background())

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin postgres tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	ident := pgx.Identifier{s.Table}.Sanitize()
	if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+ident+` (
        row_index BIGINT PRIMARY KEY,
        utterance_id TEXT NOT NULL,
        text TEXT NOT NULL,
        metadata JSONB NOT NULL
    )`); err != nil {
		return 0, fmt.Errorf("create %s: %w", s.Table, err)
	}
	if _, err := tx.Exec(ctx, `TRUNCATE `+ident); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", s.Table, err)
	}

	rows := pgx.CopyFromSlice(table.Len(), func(i int) ([]any, error) {
		row := table.Rows[i]
		metadata, err := metadataJSON(table, i)
		if err != nil {
			return nil, err
		}
		return []any{int64(row.Index), row.Values[idPos].String, row.Values[textPos].String, metadata}, nil
	})
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{s.Table},
		[]string{"row_index", "utterance_id", "text", "metadata"}, rows)
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", s.Table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit postgres tx: %w", err)
	}
	return copied, nil
}

func metadataJSON(table *corpus.Table, i int) ([]byte, error) {
	metadata := table.Record(i)
	delete(metadata, corpus.ColumnID)
	delete(metadata, corpus.ColumnText)
	payload, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata for row %d: %w", table.Rows[i].Index, err)
	}
	return payload, nil
}
