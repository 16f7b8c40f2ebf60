package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"parlacorpus/internal/corpus"
)

const buildColumns = "id, created_at, base_dir, archive, row_count, sessions_processed, sessions_skipped, sessions_failed"

// NewBuildID returns a fresh build identifier.
func NewBuildID() string {
	return uuid.NewString()
}

// SaveBuild stores a loaded corpus under build.ID (generated when empty)
// and returns the completed build record. Everything is written in one
// transaction.
func (s *Store) SaveBuild(ctx context.Context, build Build, result *corpus.Corpus) (Build, error) {
	if result == nil || result.Table == nil {
		return Build{}, errors.New("save build: corpus is nil")
	}
	table := result.Table
	idPos, textPos := table.ColumnIndex(corpus.ColumnID), table.ColumnIndex(corpus.ColumnText)
	if idPos < 0 || textPos < 0 {
		return Build{}, fmt.Errorf("save build: table lacks %s/%s columns", corpus.ColumnID, corpus.ColumnText)
	}

	if build.ID == "" {
		build.ID = NewBuildID()
	}
	if build.CreatedAt.IsZero() {
		build.CreatedAt = time.Now()
	}
	if build.BaseDir == "" {
		build.BaseDir = result.BaseDir
	}
	build.Rows = table.Len()
	build.SessionsProcessed = result.Count(corpus.StatusProcessed)
	build.SessionsSkipped = result.Count(corpus.StatusSkipped)
	build.SessionsFailed = result.Count(corpus.StatusFailed)

	err := retryOnBusy(ctx, func() error {
		return s.saveBuildTx(ctx, build, result, idPos, textPos)
	})
	if err != nil {
		return Build{}, err
	}
	build.CreatedAt = parseTime(formatTime(build.CreatedAt))
	return build, nil
}

func (s *Store) saveBuildTx(ctx context.Context, build Build, result *corpus.Corpus, idPos, textPos int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin build tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (`+buildColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		build.ID,
		formatTime(build.CreatedAt),
		build.BaseDir,
		nullableString(build.Archive),
		build.Rows,
		build.SessionsProcessed,
		build.SessionsSkipped,
		build.SessionsFailed,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}

	table := result.Table
	for pos, name := range table.Columns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO corpus_columns (build_id, position, name) VALUES (?, ?, ?)`,
			build.ID, pos, name,
		); err != nil {
			return fmt.Errorf("insert column %s: %w", name, err)
		}
	}

	for pos, session := range result.Sessions {
		var errMsg sql.NullString
		if session.Err != nil {
			errMsg = sql.NullString{String: session.Err.Error(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (
                build_id, position, text_path, meta_path, status, row_count,
                matched, unmatched, meta_only, duplicate_meta, error_message
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			build.ID, pos, session.TextPath, session.MetaPath, string(session.Status), session.Rows,
			session.Stats.Matched, session.Stats.Unmatched, session.Stats.MetaOnly, session.Stats.DuplicateMeta,
			errMsg,
		); err != nil {
			return fmt.Errorf("insert session %s: %w", session.TextPath, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO utterances (build_id, row_index, utterance_id, text, metadata_json) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare utterance insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		metadata := table.Record(i)
		delete(metadata, corpus.ColumnID)
		delete(metadata, corpus.ColumnText)
		payload, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for row %d: %w", row.Index, err)
		}
		if _, err := stmt.ExecContext(ctx, build.ID, row.Index,
			row.Values[idPos].String, row.Values[textPos].String, string(payload),
		); err != nil {
			return fmt.Errorf("insert utterance %d: %w", row.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit build: %w", err)
	}
	return nil
}

// GetBuild fetches a build by ID.
func (s *Store) GetBuild(ctx context.Context, id string) (*Build, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buildColumns+` FROM builds WHERE id = ?`, id)
	build, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get build: %w", err)
	}
	return build, nil
}

// LatestBuild returns the most recent build.
func (s *Store) LatestBuild(ctx context.Context) (*Build, error) {
	builds, err := s.ListBuilds(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, ErrNotFound
	}
	return &builds[0], nil
}

// ListBuilds returns builds newest first. A limit <= 0 returns all of them.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]Build, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+buildColumns+` FROM builds ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, *build)
	}
	return builds, rows.Err()
}

// Sessions returns the stored session outcomes of a build in traversal order.
func (s *Store) Sessions(ctx context.Context, buildID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, text_path, meta_path, status, row_count, matched, unmatched, meta_only, duplicate_meta, error_message
         FROM sessions WHERE build_id = ? ORDER BY position`, buildID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			session Session
			status  string
			errMsg  sql.NullString
		)
		if err := rows.Scan(&session.Position, &session.TextPath, &session.MetaPath, &status, &session.Rows,
			&session.Matched, &session.Unmatched, &session.MetaOnly, &session.DuplicateMeta, &errMsg); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		session.Status = corpus.SessionStatus(status)
		session.Error = errMsg.String
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// LoadTable rebuilds the corpus table of a build.
func (s *Store) LoadTable(ctx context.Context, buildID string) (*corpus.Table, error) {
	if _, err := s.GetBuild(ctx, buildID); err != nil {
		return nil, err
	}

	columns, err := s.columns(ctx, buildID)
	if err != nil {
		return nil, err
	}
	table := corpus.NewTable(columns...)
	idPos, textPos := table.ColumnIndex(corpus.ColumnID), table.ColumnIndex(corpus.ColumnText)
	if idPos < 0 || textPos < 0 {
		return nil, fmt.Errorf("build %s: stored columns lack %s/%s", buildID, corpus.ColumnID, corpus.ColumnText)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT utterance_id, text, metadata_json FROM utterances WHERE build_id = ? ORDER BY row_index`, buildID)
	if err != nil {
		return nil, fmt.Errorf("load utterances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, text, payload string
		if err := rows.Scan(&id, &text, &payload); err != nil {
			return nil, fmt.Errorf("scan utterance: %w", err)
		}
		metadata := map[string]string{}
		if err := json.Unmarshal([]byte(payload), &metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", id, err)
		}
		values := make([]sql.NullString, len(columns))
		for pos, name := range columns {
			switch pos {
			case idPos:
				values[pos] = sql.NullString{String: id, Valid: true}
			case textPos:
				values[pos] = sql.NullString{String: text, Valid: true}
			default:
				if v, ok := metadata[name]; ok {
					values[pos] = sql.NullString{String: v, Valid: true}
				}
			}
		}
		if err := table.Append(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load utterances: %w", err)
	}
	return table, nil
}

// PruneBuilds deletes all but the newest keep builds and returns how many
// were removed.
func (s *Store) PruneBuilds(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM builds WHERE id NOT IN (
                SELECT id FROM builds ORDER BY created_at DESC, rowid DESC LIMIT ?
            )`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune builds: %w", err)
	}
	return int(removed), nil
}

func (s *Store) columns(ctx context.Context, buildID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM corpus_columns WHERE build_id = ? ORDER BY position`, buildID)
	if err != nil {
		return nil, fmt.Errorf("load columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func scanBuild(scanner interface{ Scan(dest ...any) error }) (*Build, error) {
	var (
		build      Build
		createdRaw string
		archive    sql.NullString
	)
	if err := scanner.Scan(
		&build.ID,
		&createdRaw,
		&build.BaseDir,
		&archive,
		&build.Rows,
		&build.SessionsProcessed,
		&build.SessionsSkipped,
		&build.SessionsFailed,
	); err != nil {
		return nil, err
	}
	build.CreatedAt = parseTime(createdRaw)
	build.Archive = archive.String
	return &build, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
