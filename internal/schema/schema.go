package schema

import (
	"fmt"
	"strings"

	"parlacorpus/internal/corpus"
)

// Kind is the logical type of a contract column.
type Kind string

const (
	KindIndex       Kind = "index"
	KindDate        Kind = "date"
	KindCategorical Kind = "categorical"
	KindString      Kind = "string"
	KindFloat       Kind = "float"
)

// Source says which stage produces a column.
type Source string

const (
	// SourceLoader columns are produced by the corpus loader itself.
	SourceLoader Source = "loader"
	// SourceMetadata columns are carried over from the metadata files.
	SourceMetadata Source = "metadata"
	// SourceEnrichment columns are added after loading (sentiment, topics).
	SourceEnrichment Source = "enrichment"
)

// Column is one named, typed column of a contract.
type Column struct {
	Name   string
	Kind   Kind
	Source Source
	// Aliases are header spellings accepted in place of Name.
	Aliases []string
}

// Contract is an ordered list of required columns.
type Contract struct {
	Name    string
	Columns []Column
}

// Dashboard column names.
const (
	ColumnIndex         = "Index"
	ColumnDate          = "Date"
	ColumnSpeakerName   = "Speaker_name"
	ColumnSpeakerGender = "Speaker_gender"
	ColumnSpeakerParty  = "Speaker_party"
	ColumnTitle         = "Title"
	ColumnTopic         = "Topic 1"
	ColumnCompoundScore = "compound_score"
	ColumnText          = corpus.ColumnText
	ColumnSubcorpus     = "Subcorpus"
)

// Dashboard is the contract of the enriched CSV the dashboard reads. The
// index column is unnamed when written by pandas or by export.WriteCSV.
var Dashboard = Contract{
	Name: "dashboard",
	Columns: []Column{
		{Name: ColumnIndex, Kind: KindIndex, Source: SourceLoader, Aliases: []string{"", "Unnamed: 0"}},
		{Name: ColumnDate, Kind: KindDate, Source: SourceMetadata},
		{Name: ColumnSpeakerName, Kind: KindCategorical, Source: SourceMetadata},
		{Name: ColumnSpeakerGender, Kind: KindCategorical, Source: SourceMetadata},
		{Name: ColumnSpeakerParty, Kind: KindCategorical, Source: SourceMetadata},
		{Name: ColumnTitle, Kind: KindString, Source: SourceMetadata},
		{Name: ColumnTopic, Kind: KindCategorical, Source: SourceEnrichment},
		{Name: ColumnCompoundScore, Kind: KindFloat, Source: SourceEnrichment},
		{Name: ColumnText, Kind: KindString, Source: SourceLoader},
		{Name: ColumnSubcorpus, Kind: KindCategorical, Source: SourceMetadata},
	},
}

// Problem is one contract violation.
type Problem struct {
	Column string
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Column, p.Reason)
}

// Lookup returns the contract column with the given name.
func (c Contract) Lookup(name string) (Column, bool) {
	for _, col := range c.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Resolve maps each contract column to its position in header, or -1 when
// absent. The index column is matched by name, alias, or position zero.
func (c Contract) Resolve(header []string) map[string]int {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	out := make(map[string]int, len(c.Columns))
	for _, col := range c.Columns {
		out[col.Name] = -1
		if pos, ok := positions[col.Name]; ok {
			out[col.Name] = pos
			continue
		}
		for _, alias := range col.Aliases {
			if pos, ok := positions[alias]; ok {
				out[col.Name] = pos
				break
			}
		}
	}
	return out
}

// Check reports every contract column missing from header, plus duplicate
// header names that would make a column ambiguous.
func (c Contract) Check(header []string) []Problem {
	var problems []Problem
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := seen[name]; dup && name != "" {
			problems = append(problems, Problem{Column: name, Reason: "duplicate column"})
		}
		seen[name] = struct{}{}
	}

	resolved := c.Resolve(header)
	for _, col := range c.Columns {
		if resolved[col.Name] < 0 {
			problems = append(problems, Problem{Column: col.Name, Reason: fmt.Sprintf("missing %s column (%s)", col.Kind, col.Source)})
		}
	}
	return problems
}

// Coverage describes which contract columns a loaded corpus supplies.
type Coverage struct {
	Present []string
	// Pending are enrichment columns a loader cannot produce.
	Pending []string
	// Missing are loader or metadata columns the table lacks.
	Missing []string
}

// Complete reports whether every column the loader is responsible for is present.
func (c Coverage) Complete() bool {
	return len(c.Missing) == 0
}

// CheckTable compares a loaded corpus table against the contract. The
// index column is always present, since every row carries its index.
func (c Contract) CheckTable(table *corpus.Table) Coverage {
	var cov Coverage
	for _, col := range c.Columns {
		switch {
		case col.Kind == KindIndex || table.HasColumn(col.Name):
			cov.Present = append(cov.Present, col.Name)
		case col.Source == SourceEnrichment:
			cov.Pending = append(cov.Pending, col.Name)
		default:
			cov.Missing = append(cov.Missing, col.Name)
		}
	}
	return cov
}
