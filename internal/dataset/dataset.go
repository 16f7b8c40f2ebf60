package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"parlacorpus/internal/schema"
)

// Record is one utterance of the dashboard dataset.
type Record struct {
	Index         int
	Date          time.Time
	SpeakerName   string
	SpeakerGender string
	SpeakerParty  string
	Title         string
	Topic         string
	CompoundScore float64
	// HasScore is false when compound_score was empty.
	HasScore  bool
	Text      string
	Subcorpus string
	// Extra holds columns outside the contract.
	Extra map[string]string
}

// Dataset is a loaded dashboard CSV.
type Dataset struct {
	Path    string
	Columns []string
	Records []Record
}

// SchemaError reports a CSV header that does not satisfy the dashboard contract.
type SchemaError struct {
	Problems []schema.Problem
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return "dataset does not match the dashboard schema: " + strings.Join(parts, "; ")
}

// Load reads the dashboard CSV at path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	ds.Path = path
	return ds, nil
}

// Read parses a dashboard CSV. Dates accept any layout dateparse
// understands and are interpreted as UTC; an empty date or score is kept
// as the zero value.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	if problems := schema.Dashboard.Check(header); len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}
	pos := schema.Dashboard.Resolve(header)

	extra := make(map[int]string)
	known := make(map[int]struct{}, len(pos))
	for _, p := range pos {
		known[p] = struct{}{}
	}
	for i, name := range header {
		if _, ok := known[i]; !ok {
			extra[i] = name
		}
	}

	ds := &Dataset{Columns: header}
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		rec := Record{
			SpeakerName:   fields[pos[schema.ColumnSpeakerName]],
			SpeakerGender: fields[pos[schema.ColumnSpeakerGender]],
			SpeakerParty:  fields[pos[schema.ColumnSpeakerParty]],
			Title:         fields[pos[schema.ColumnTitle]],
			Topic:         fields[pos[schema.ColumnTopic]],
			Text:          fields[pos[schema.ColumnText]],
			Subcorpus:     fields[pos[schema.ColumnSubcorpus]],
		}

		rec.Index = len(ds.Records)
		if raw := strings.TrimSpace(fields[pos[schema.ColumnIndex]]); raw != "" {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: index %q: %w", line, raw, err)
			}
			rec.Index = idx
		}
		if raw := strings.TrimSpace(fields[pos[schema.ColumnDate]]); raw != "" {
			date, err := dateparse.ParseIn(raw, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("line %d: date %q: %w", line, raw, err)
			}
			rec.Date = date
		}
		if raw := strings.TrimSpace(fields[pos[schema.ColumnCompoundScore]]); raw != "" {
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: compound_score %q: %w", line, raw, err)
			}
			rec.CompoundScore, rec.HasScore = score, true
		}
		if len(extra) > 0 {
			rec.Extra = make(map[string]string, len(extra))
			for i, name := range extra {
				rec.Extra[name] = fields[i]
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Value returns a record's value for a categorical or string column by its
// CSV name.
func (r Record) Value(column string) (string, bool) {
	switch column {
	case schema.ColumnSpeakerName:
		return r.SpeakerName, true
	case schema.ColumnSpeakerGender:
		return r.SpeakerGender, true
	case schema.ColumnSpeakerParty:
		return r.SpeakerParty, true
	case schema.ColumnTitle:
		return r.Title, true
	case schema.ColumnTopic:
		return r.Topic, true
	case schema.ColumnSubcorpus:
		return r.Subcorpus, true
	case schema.ColumnText:
		return r.Text, true
	}
	v, ok := r.Extra[column]
	return v, ok
}

// DateRange returns the earliest and latest dated records.
func (d *Dataset) DateRange() (time.Time, time.Time) {
	var first, last time.Time
	for _, r := range d.Records {
		if r.Date.IsZero() {
			continue
		}
		if first.IsZero() || r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last
}
