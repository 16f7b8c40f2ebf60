package corpus

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxLineBytes bounds a single TSV line. Long plenary speeches stay well below it.
const maxLineBytes = 16 << 20

// ParseError reports a file that cannot be read as UTF-8 tab-separated data.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errInvalidUTF8   = errors.New("invalid UTF-8")
	errMissingHeader = errors.New("missing header row")
)

// ReadTextFile parses a headerless speech file of ID<TAB>text lines into a
// table with the columns ID and text. Everything after the first tab belongs
// to the text. Blank lines are ignored.
func ReadTextFile(path string) (*Table, error) {
	table := NewTable(ColumnID, ColumnText)
	err := scanTSV(path, func(_ int, text string) error {
		id, speech, ok := strings.Cut(text, "\t")
		if !ok {
			return errors.New("expected 2 tab-separated fields, found 1")
		}
		id = strings.TrimSpace(id)
		if id == "" {
			return fmt.Errorf("empty %s", ColumnID)
		}
		return table.Append(valid(id), valid(speech))
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// ReadMetaFile parses a metadata TSV with a header row. The header must
// contain an ID column; empty cells become null, as do trailing cells a
// short row leaves out.
func ReadMetaFile(path string) (*Table, error) {
	var table *Table
	err := scanTSV(path, func(_ int, text string) error {
		fields := strings.Split(text, "\t")
		if table == nil {
			header := make([]string, len(fields))
			seen := make(map[string]struct{}, len(fields))
			for i, name := range fields {
				name = strings.TrimSpace(name)
				if name == "" {
					return fmt.Errorf("header column %d is empty", i+1)
				}
				if _, dup := seen[name]; dup {
					return fmt.Errorf("duplicate header column %q", name)
				}
				seen[name] = struct{}{}
				header[i] = name
			}
			if _, ok := seen[ColumnID]; !ok {
				return fmt.Errorf("header has no %s column", ColumnID)
			}
			table = NewTable(header...)
			return nil
		}
		if len(fields) > len(table.Columns) {
			return fmt.Errorf("expected at most %d fields, found %d", len(table.Columns), len(fields))
		}
		if idPos := table.ColumnIndex(ColumnID); idPos < len(fields) {
			fields[idPos] = strings.TrimSpace(fields[idPos])
		}
		row := make([]sql.NullString, len(fields))
		for i, v := range fields {
			row[i] = nullable(v)
		}
		return table.Append(row...)
	})
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, &ParseError{Path: path, Err: errMissingHeader}
	}
	return table, nil
}

// scanTSV feeds each non-blank line of path to fn. A leading UTF-8 byte order
// mark is dropped; a carriage return before the newline is stripped.
func scanTSV(path string, fn func(line int, text string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return &ParseError{Path: path, Err: err}
	}
	defer file.Close()

	return scanLines(path, transform.NewReader(file, unicode.BOMOverride(transform.Nop)), fn)
}

func scanLines(path string, r io.Reader, fn func(line int, text string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if !utf8.ValidString(text) {
			return &ParseError{Path: path, Line: line, Err: errInvalidUTF8}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := fn(line, text); err != nil {
			return &ParseError{Path: path, Line: line, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return &ParseError{Path: path, Line: line + 1, Err: err}
	}
	return nil
}
