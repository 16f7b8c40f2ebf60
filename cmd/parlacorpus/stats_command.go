package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"parlacorpus/internal/datacache"
	"parlacorpus/internal/dataset"
	"parlacorpus/internal/logging"
	"parlacorpus/internal/schema"
)

type statsOptions struct {
	dataset  string
	by       string
	from     string
	to       string
	title    string
	only     []string
	sessions bool
	json     bool
	watch    bool
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	opts := statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize compound_score in the dashboard dataset",
		Long: "Reads the enriched dashboard CSV, filters it by date, session or category\n" +
			"and prints utterance counts with mean compound_score per group.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Dataset.Path
			if err := applyPathOverride(&path, opts.dataset); err != nil {
				return err
			}
			filter, err := opts.filter()
			if err != nil {
				return err
			}

			cache := datacache.New[*dataset.Dataset](dataset.Load)
			render := func() error {
				ds, err := cache.Get(path)
				if err != nil {
					return err
				}
				filtered, err := ds.Filter(filter)
				if err != nil {
					return err
				}
				if opts.sessions {
					return renderSessions(cmd, filtered, opts.json)
				}
				return renderGroups(cmd, filtered, opts.by, opts.json)
			}

			if !opts.watch {
				return render()
			}
			base, closeLog, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			logger := logging.NewComponentLogger(base, "stats")
			watcher, err := datacache.NewWatcher(cache, base)
			if err != nil {
				return err
			}
			defer watcher.Close()
			if err := watcher.Add(path); err != nil {
				return err
			}

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go func() { _ = watcher.Run(runCtx) }()

			if err := render(); err != nil {
				return err
			}
			for {
				select {
				case <-runCtx.Done():
					return nil
				case <-watcher.Changes():
					if err := render(); err != nil {
						logging.WarnWithContext(logger, "dataset reload failed", "dataset_reload_failed",
							logging.String(logging.FieldFile, path),
							logging.Error(err),
							logging.String(logging.FieldImpact, "previous statistics remain on screen"),
						)
						continue
					}
					stats := cache.Stats()
					logger.Debug("dataset reloaded",
						logging.String(logging.FieldFile, path),
						logging.Int("cache_hits", stats.Hits),
						logging.Int("cache_misses", stats.Misses),
					)
				}
			}
		},
	}

	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "Dashboard CSV (defaults to dataset.path)")
	cmd.Flags().StringVar(&opts.by, "by", schema.ColumnSpeakerParty, "Categorical column to group by")
	cmd.Flags().StringVar(&opts.from, "from", "", "Only utterances on or after this date")
	cmd.Flags().StringVar(&opts.to, "to", "", "Only utterances on or before this date")
	cmd.Flags().StringVar(&opts.title, "title", "", "Only utterances of this session title")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "Only these values of the --by column (comma separated)")
	cmd.Flags().BoolVar(&opts.sessions, "sessions", false, "List sessions by date instead of grouping")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-render whenever the dataset file changes")
	return cmd
}

func (o statsOptions) filter() (dataset.Filter, error) {
	filter := dataset.Filter{Title: strings.TrimSpace(o.title)}
	var err error
	if filter.From, err = parseDateFlag("from", o.from); err != nil {
		return filter, err
	}
	if filter.To, err = parseDateFlag("to", o.to); err != nil {
		return filter, err
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return filter, fmt.Errorf("--to %s is before --from %s", o.to, o.from)
	}
	if len(o.only) > 0 {
		filter.Column = o.by
		filter.Values = o.only
	}
	return filter, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

type groupOutput struct {
	Key    string   `json:"key"`
	Count  int      `json:"count"`
	Scored int      `json:"scored"`
	Mean   *float64 `json:"mean_compound_score"`
	Min    *float64 `json:"min_compound_score"`
	Max    *float64 `json:"max_compound_score"`
}

func renderGroups(cmd *cobra.Command, ds *dataset.Dataset, by string, jsonOutput bool) error {
	groups, err := ds.GroupBy(by)
	if err != nil {
		return err
	}
	if jsonOutput {
		out := make([]groupOutput, 0, len(groups))
		for _, g := range groups {
			out = append(out, groupOutput{
				Key:    g.Key,
				Count:  g.Count,
				Scored: g.Scored,
				Mean:   finite(g.Mean),
				Min:    finite(g.Min),
				Max:    finite(g.Max),
			})
		}
		return writeJSON(cmd, map[string]any{
			"dataset": ds.Path,
			"by":      by,
			"records": ds.Len(),
			"groups":  out,
		})
	}

	out := cmd.OutOrStdout()
	first, last := ds.DateRange()
	if first.IsZero() {
		fmt.Fprintf(out, "%d utterances\n", ds.Len())
	} else {
		fmt.Fprintf(out, "%d utterances from %s to %s\n", ds.Len(), first.Format(time.DateOnly), last.Format(time.DateOnly))
	}
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		key := g.Key
		if key == "" {
			key = "(none)"
		}
		rows = append(rows, []string{key, strconv.Itoa(g.Count), formatScore(g.Mean), formatScore(g.Min), formatScore(g.Max)})
	}
	printTable(cmd, []string{by, "Utterances", "Mean score", "Min", "Max"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight})
	return nil
}

type sessionStartOutput struct {
	Title     string `json:"title"`
	Date      string `json:"date,omitempty"`
	Subcorpus string `json:"subcorpus,omitempty"`
	Records   int    `json:"records"`
}

func renderSessions(cmd *cobra.Command, ds *dataset.Dataset, jsonOutput bool) error {
	sessions := ds.Sessions()
	if jsonOutput {
		out := make([]sessionStartOutput, 0, len(sessions))
		for _, s := range sessions {
			out = append(out, sessionStartOutput{Title: s.Title, Date: formatDate(s.Date), Subcorpus: s.Subcorpus, Records: s.Records})
		}
		return writeJSON(cmd, out)
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{formatDate(s.Date), s.Title, s.Subcorpus, strconv.Itoa(s.Records)})
	}
	printTable(cmd, []string{"Date", "Title", "Subcorpus", "Utterances"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatScore(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
