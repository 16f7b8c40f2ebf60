package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"parlacorpus/internal/logging"
)

// ErrNoValidData is returned when a walk finishes without a single session
// contributing rows.
var ErrNoValidData = errors.New("no valid files processed: check directory structure and naming convention")

// SessionStatus is the outcome of one text file during a load.
type SessionStatus string

const (
	StatusProcessed SessionStatus = "processed"
	StatusSkipped   SessionStatus = "skipped"
	StatusFailed    SessionStatus = "failed"
)

// SessionResult records what happened to one candidate text file.
type SessionResult struct {
	TextPath string
	MetaPath string
	Status   SessionStatus
	Rows     int
	Stats    JoinStats
	Err      error
}

// Corpus is the result of a load: the concatenated table plus a per-file
// account in traversal order.
type Corpus struct {
	BaseDir  string
	Table    *Table
	Sessions []SessionResult
}

// Count returns how many sessions ended with the given status.
func (c *Corpus) Count(status SessionStatus) int {
	n := 0
	for _, s := range c.Sessions {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Option customizes a Loader.
type Option func(*Loader)

// WithNaming overrides the default file naming convention.
func WithNaming(naming Naming) Option {
	return func(l *Loader) {
		l.naming = naming
	}
}

// WithLogger sets the logger used for per-session progress lines.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader walks an extracted corpus and assembles the utterance table.
type Loader struct {
	naming Naming
	logger *slog.Logger
}

// NewLoader builds a Loader with the ParlaMint naming convention and a no-op
// logger unless overridden.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{naming: DefaultNaming()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.NewComponentLogger(l.logger, "loader")
	return l
}

// LoadCorpus walks baseDir with the default naming convention and returns
// the concatenated table.
func LoadCorpus(ctx context.Context, baseDir string, logger *slog.Logger) (*Table, error) {
	result, err := NewLoader(WithLogger(logger)).Load(ctx, baseDir)
	if err != nil {
		return nil, err
	}
	return result.Table, nil
}

// Load walks baseDir top-down: each directory's files in lexical order, then
// its subdirectories. Every text file with a sibling metadata file is joined;
// files without one are skipped and failures are logged and skipped. The
// per-session tables are concatenated in traversal order.
func (l *Loader) Load(ctx context.Context, baseDir string) (*Corpus, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus directory %s is not a directory", baseDir)
	}

	result := &Corpus{BaseDir: baseDir}
	var tables []*Table
	if err := l.walk(ctx, baseDir, true, result, &tables); err != nil {
		return nil, err
	}

	result.Table = Concat(tables...)
	if result.Table.Len() == 0 {
		logging.ErrorWithContext(l.logger, "no session produced rows", "corpus_empty",
			logging.String("base_dir", baseDir),
			logging.Int("sessions_skipped", result.Count(StatusSkipped)),
			logging.Int("sessions_failed", result.Count(StatusFailed)),
			logging.String(logging.FieldErrorHint, "check that "+l.naming.TextExtension+" files have "+l.naming.MetaSuffix+" siblings"),
		)
		return nil, ErrNoValidData
	}

	l.logger.Info("corpus assembled",
		logging.String(logging.FieldEventType, "corpus_assembled"),
		logging.Int("rows", result.Table.Len()),
		logging.Int("columns", len(result.Table.Columns)),
		logging.Int("sessions_processed", result.Count(StatusProcessed)),
		logging.Int("sessions_skipped", result.Count(StatusSkipped)),
		logging.Int("sessions_failed", result.Count(StatusFailed)),
	)
	return result, nil
}

func (l *Loader) walk(ctx context.Context, dir string, root bool, result *Corpus, tables *[]*Table) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if root {
			return fmt.Errorf("read corpus directory: %w", err)
		}
		logging.WarnWithContext(l.logger, "directory unreadable", "directory_unreadable",
			logging.String(logging.FieldSessionDir, dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "sessions in this directory are not loaded"),
		)
		return nil
	}

	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, filepath.Join(dir, entry.Name()))
			continue
		}
		if !l.naming.IsTextFile(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		session, table := l.loadSession(dir, entry.Name())
		result.Sessions = append(result.Sessions, session)
		if table != nil {
			*tables = append(*tables, table)
		}
	}

	for _, sub := range subdirs {
		if err := l.walk(ctx, sub, false, result, tables); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadSession(dir, name string) (SessionResult, *Table) {
	metaName := l.naming.MetaFileName(name)
	session := SessionResult{
		TextPath: filepath.Join(dir, name),
		MetaPath: filepath.Join(dir, metaName),
	}

	info, err := os.Stat(session.MetaPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()):
		session.Status = StatusSkipped
		l.logger.Info("session skipped: no matching metadata",
			logging.String(logging.FieldEventType, "session_skipped"),
			logging.String(logging.FieldFile, name),
			logging.String("expected_meta", metaName),
			logging.String(logging.FieldSessionDir, dir),
		)
		return session, nil
	case err != nil:
		return l.fail(session, name, err), nil
	}

	table, stats, err := JoinSessionFiles(session.TextPath, session.MetaPath)
	session.Stats = stats
	if err != nil {
		return l.fail(session, name, err), nil
	}

	session.Status = StatusProcessed
	session.Rows = table.Len()
	l.logger.Info("session processed",
		logging.String(logging.FieldEventType, "session_processed"),
		logging.String(logging.FieldFile, name),
		logging.Int("rows", session.Rows),
		logging.Int("unmatched", stats.Unmatched),
	)
	if stats.MetaOnly > 0 || stats.DuplicateMeta > 0 {
		l.logger.Debug("metadata rows not joined",
			logging.String(logging.FieldFile, metaName),
			logging.Int("meta_only", stats.MetaOnly),
			logging.Int("duplicate_ids", stats.DuplicateMeta),
		)
	}
	return session, table
}

func (l *Loader) fail(session SessionResult, name string, err error) SessionResult {
	session.Status = StatusFailed
	session.Err = err
	logging.WarnWithContext(l.logger, "session failed", "session_failed",
		logging.String(logging.FieldFile, name),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the file is UTF-8 tab-separated with an ID column"),
		logging.String(logging.FieldImpact, "session contributes no rows"),
	)
	return session
}
