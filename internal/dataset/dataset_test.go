package dataset

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"parlacorpus/internal/testsupport"
)

const sampleCSV = `,Date,Speaker_name,Speaker_gender,Speaker_party,Title,Topic 1,compound_score,text,Subcorpus,Lang
0,2022-01-20,Alice,F,SPÖ,Sitzung 1,Budget,0.5,"Guten Tag, Herr Präsident",Reference,de
1,2022-01-20,Bob,M,ÖVP,Sitzung 1,Budget,-0.25,Danke,Reference,de
2,2022-03-02,Alice,F,SPÖ,Sitzung 2,Health,0.75,Ja,COVID,de
3,03/02/2022,Carol,F,Grüne,Sitzung 2,Health,,Nein,COVID,de
4,2021-12-31,Dan,M,FPÖ,Sitzung 0,Budget,0.1,Frohes neues Jahr,Reference,de
`

func loadSample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return ds
}

func TestRead(t *testing.T) {
	ds := loadSample(t)
	if ds.Len() != 5 {
		t.Fatalf("records = %d, want 5", ds.Len())
	}
	first := ds.Records[0]
	if first.Text != "Guten Tag, Herr Präsident" || first.SpeakerParty != "SPÖ" || first.CompoundScore != 0.5 {
		t.Fatalf("first record = %+v", first)
	}
	if want := time.Date(2022, 1, 20, 0, 0, 0, 0, time.UTC); !first.Date.Equal(want) {
		t.Fatalf("date = %v, want %v", first.Date, want)
	}
	if got := ds.Records[3].Date; !got.Equal(time.Date(2022, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("US-style date parsed as %v", got)
	}
	if ds.Records[3].HasScore {
		t.Fatal("empty compound_score should not count as scored")
	}
	if v, ok := ds.Records[2].Value("Lang"); !ok || v != "de" {
		t.Fatalf("extra column = %q, %v", v, ok)
	}

	from, to := ds.DateRange()
	if from.Year() != 2021 || to.Month() != time.March {
		t.Fatalf("range = %v..%v", from, to)
	}
}

func TestReadSchemaError(t *testing.T) {
	_, err := Read(strings.NewReader("ID,text\nu1,hi\n"))
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(serr.Problems) == 0 || !strings.Contains(err.Error(), "compound_score") {
		t.Fatalf("unexpected problems %v", serr.Problems)
	}
}

func TestReadBadValues(t *testing.T) {
	header := ",Date,Speaker_name,Speaker_gender,Speaker_party,Title,Topic 1,compound_score,text,Subcorpus\n"
	tests := map[string]string{
		"score": "0,2022-01-01,A,F,P,T,X,high,t,R\n",
		"date":  "0,not a date,A,F,P,T,X,0.1,t,R\n",
		"index": "x,2022-01-01,A,F,P,T,X,0.1,t,R\n",
	}
	for name, row := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(header + row)); err == nil || !strings.Contains(err.Error(), "line 2") {
				t.Fatalf("expected line-numbered error, got %v", err)
			}
		})
	}
	if _, err := Read(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "dashboard.csv"), sampleCSV)
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Path != path || ds.Len() != 5 {
		t.Fatalf("unexpected dataset %s with %d records", ds.Path, ds.Len())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFilter(t *testing.T) {
	ds := loadSample(t)

	inJan, err := ds.Filter(Filter{
		From: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2022, 1, 20, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if inJan.Len() != 2 {
		t.Fatalf("records in range = %d, want 2 (To is inclusive by day)", inJan.Len())
	}

	parties, err := ds.Filter(Filter{Column: "Speaker_party", Values: []string{"SPÖ", "Grüne"}})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if parties.Len() != 3 {
		t.Fatalf("party filter kept %d, want 3", parties.Len())
	}

	session, _ := ds.Filter(Filter{Title: "Sitzung 2"})
	if session.Len() != 2 {
		t.Fatalf("session filter kept %d, want 2", session.Len())
	}

	if _, err := ds.Filter(Filter{Column: "nope", Values: []string{"x"}}); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestGroupBy(t *testing.T) {
	ds := loadSample(t)
	groups, err := ds.GroupBy("Speaker_party")
	if err != nil {
		t.Fatalf("GroupBy: %v", err)
	}
	if len(groups) != 4 || groups[0].Key != "SPÖ" || groups[0].Count != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if math.Abs(groups[0].Mean-0.625) > 1e-9 || groups[0].Min != 0.5 || groups[0].Max != 0.75 {
		t.Fatalf("SPÖ stats = %+v", groups[0])
	}
	for _, g := range groups {
		if g.Key == "Grüne" && (g.Scored != 0 || !math.IsNaN(g.Mean)) {
			t.Fatalf("unscored group = %+v", g)
		}
	}

	if _, err := ds.GroupBy("compound_score"); err == nil {
		t.Fatal("expected error grouping by a numeric column")
	}
	if _, err := ds.GroupBy("missing"); err == nil {
		t.Fatal("expected error grouping by an unknown column")
	}
}

func TestSessions(t *testing.T) {
	sessions := loadSample(t).Sessions()
	if len(sessions) != 3 {
		t.Fatalf("sessions = %+v", sessions)
	}
	var titles []string
	for _, s := range sessions {
		titles = append(titles, s.Title)
	}
	if got := strings.Join(titles, ","); got != "Sitzung 0,Sitzung 1,Sitzung 2" {
		t.Fatalf("order = %s", got)
	}
	if sessions[2].Records != 2 || sessions[2].Subcorpus != "COVID" {
		t.Fatalf("last session = %+v", sessions[2])
	}
}
