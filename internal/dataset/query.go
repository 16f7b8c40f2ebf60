package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"

	"parlacorpus/internal/schema"
)

// Filter narrows a dataset. Zero fields do not filter.
type Filter struct {
	// From and To bound Date inclusively; To is compared by calendar day.
	From time.Time
	To   time.Time
	// Title restricts to one session.
	Title string
	// Column and Values keep records whose Column value is in Values.
	Column string
	Values []string
}

// Filter returns a new dataset with the records matching f, in order.
func (d *Dataset) Filter(f Filter) (*Dataset, error) {
	var allowed map[string]struct{}
	if f.Column != "" && len(f.Values) > 0 {
		if !d.hasColumn(f.Column) {
			return nil, fmt.Errorf("unknown column %q", f.Column)
		}
		allowed = make(map[string]struct{}, len(f.Values))
		for _, v := range f.Values {
			allowed[v] = struct{}{}
		}
	}
	var toExclusive time.Time
	if !f.To.IsZero() {
		y, m, day := f.To.Date()
		toExclusive = time.Date(y, m, day+1, 0, 0, 0, 0, f.To.Location())
	}

	out := &Dataset{Path: d.Path, Columns: d.Columns}
	for _, r := range d.Records {
		if !f.From.IsZero() && (r.Date.IsZero() || r.Date.Before(f.From)) {
			continue
		}
		if !toExclusive.IsZero() && (r.Date.IsZero() || !r.Date.Before(toExclusive)) {
			continue
		}
		if f.Title != "" && r.Title != f.Title {
			continue
		}
		if allowed != nil {
			v, _ := r.Value(f.Column)
			if _, ok := allowed[v]; !ok {
				continue
			}
		}
		out.Records = append(out.Records, r)
	}
	return out, nil
}

// Group is one bucket of a group-by over compound_score.
type Group struct {
	Key   string
	Count int
	// Scored counts records with a compound_score; Mean, Min and Max are
	// over those and NaN when Scored is zero.
	Scored int
	Mean   float64
	Min    float64
	Max    float64
}

// GroupBy buckets records by a categorical column, sorted by descending
// count, then key.
func (d *Dataset) GroupBy(column string) ([]Group, error) {
	if !d.hasColumn(column) {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	if col, ok := schema.Dashboard.Lookup(column); ok && col.Kind != schema.KindCategorical && col.Kind != schema.KindString {
		return nil, fmt.Errorf("column %q is %s, not categorical", column, col.Kind)
	}

	index := map[string]int{}
	var groups []Group
	sums := []float64{}
	for _, r := range d.Records {
		key, _ := r.Value(column)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Min: math.Inf(1), Max: math.Inf(-1)})
			sums = append(sums, 0)
		}
		g := &groups[i]
		g.Count++
		if r.HasScore {
			g.Scored++
			sums[i] += r.CompoundScore
			g.Min = math.Min(g.Min, r.CompoundScore)
			g.Max = math.Max(g.Max, r.CompoundScore)
		}
	}
	for i := range groups {
		if groups[i].Scored == 0 {
			groups[i].Mean, groups[i].Min, groups[i].Max = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		groups[i].Mean = sums[i] / float64(groups[i].Scored)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].Count != groups[b].Count {
			return groups[a].Count > groups[b].Count
		}
		return groups[a].Key < groups[b].Key
	})
	return groups, nil
}

// SessionStart is the first utterance of a session.
type SessionStart struct {
	Title     string
	Date      time.Time
	Subcorpus string
	Records   int
}

// Sessions returns one entry per Title, dated by its earliest record and
// ordered by that date.
func (d *Dataset) Sessions() []SessionStart {
	index := map[string]int{}
	var sessions []SessionStart
	for _, r := range d.Records {
		i, ok := index[r.Title]
		if !ok {
			index[r.Title] = len(sessions)
			sessions = append(sessions, SessionStart{Title: r.Title, Date: r.Date, Subcorpus: r.Subcorpus, Records: 1})
			continue
		}
		s := &sessions[i]
		s.Records++
		if !r.Date.IsZero() && (s.Date.IsZero() || r.Date.Before(s.Date)) {
			s.Date, s.Subcorpus = r.Date, r.Subcorpus
		}
	}
	sort.SliceStable(sessions, func(a, b int) bool {
		return sessions[a].Date.Before(sessions[b].Date)
	})
	return sessions
}

func (d *Dataset) hasColumn(name string) bool {
	if _, ok := schema.Dashboard.Lookup(name); ok {
		return true
	}
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}
