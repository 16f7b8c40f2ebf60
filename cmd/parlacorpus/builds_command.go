package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"parlacorpus/internal/export"
	"parlacorpus/internal/store"
)

func newBuildsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List and manage stored corpus builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(st *store.Store) error {
				builds, err := st.ListBuilds(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, buildsJSON(builds))
				}
				if len(builds) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No builds stored")
					return nil
				}
				rows := make([][]string, 0, len(builds))
				for _, b := range builds {
					rows = append(rows, []string{
						b.ID,
						b.CreatedAt.Local().Format(time.DateTime),
						strconv.Itoa(b.Rows),
						strconv.Itoa(b.SessionsProcessed),
						strconv.Itoa(b.SessionsSkipped),
						strconv.Itoa(b.SessionsFailed),
						b.BaseDir,
					})
				}
				printTable(cmd,
					[]string{"ID", "Created", "Rows", "Processed", "Skipped", "Failed", "Corpus"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft})
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most N builds (0 shows all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	cmd.AddCommand(newBuildsShowCommand(ctx))
	cmd.AddCommand(newBuildsExportCommand(ctx))
	cmd.AddCommand(newBuildsPruneCommand(ctx))
	return cmd
}

func newBuildsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [build-id]",
		Short: "Show the per-session outcome of a build (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(st *store.Store) error {
				build, err := resolveBuild(cmd, st, args)
				if err != nil {
					return err
				}
				sessions, err := st.Sessions(cmd.Context(), build.ID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"build":    buildJSON(*build),
						"sessions": sessionsJSON(sessions),
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Build %s (%s)\n", build.ID, build.CreatedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Corpus: %s\n", build.BaseDir)
				if build.Archive != "" {
					fmt.Fprintf(out, "Archive: %s\n", build.Archive)
				}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{
						relativeTo(build.BaseDir, s.TextPath),
						string(s.Status),
						strconv.Itoa(s.Rows),
						strconv.Itoa(s.Unmatched),
						strconv.Itoa(s.MetaOnly),
						s.Error,
					})
				}
				printTable(cmd,
					[]string{"Session", "Status", "Rows", "Unmatched", "Meta only", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft})
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newBuildsExportCommand(ctx *commandContext) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "export [build-id]",
		Short: "Write a stored build to CSV (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target := cfg.Export.CSVPath
			if err := applyPathOverride(&target, csvPath); err != nil {
				return err
			}
			if target == "" {
				return errors.New("no CSV destination: pass --csv or set export.csv_path")
			}
			return withStore(ctx, func(st *store.Store) error {
				build, err := resolveBuild(cmd, st, args)
				if err != nil {
					return err
				}
				table, err := st.LoadTable(cmd.Context(), build.ID)
				if err != nil {
					return err
				}
				if err := export.WriteCSVFile(target, table); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows from build %s to %s\n", table.Len(), build.ID, target)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Destination CSV file (defaults to export.csv_path)")
	return cmd
}

func newBuildsPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 1 {
				return errors.New("--keep must be at least 1")
			}
			return withStore(ctx, func(st *store.Store) error {
				removed, err := st.PruneBuilds(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d builds\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 5, "Number of newest builds to keep")
	return cmd
}

func withStore(ctx *commandContext, fn func(*store.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open build store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

func resolveBuild(cmd *cobra.Command, st *store.Store, args []string) (*store.Build, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" || args[0] == "latest" {
		build, err := st.LatestBuild(cmd.Context())
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.New("no builds stored; run parlacorpus build first")
		}
		return build, err
	}
	return st.GetBuild(cmd.Context(), strings.TrimSpace(args[0]))
}

type buildOutput struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	BaseDir           string    `json:"base_dir"`
	Archive           string    `json:"archive,omitempty"`
	Rows              int       `json:"rows"`
	SessionsProcessed int       `json:"sessions_processed"`
	SessionsSkipped   int       `json:"sessions_skipped"`
	SessionsFailed    int       `json:"sessions_failed"`
}

type sessionOutput struct {
	TextPath      string `json:"text_path"`
	MetaPath      string `json:"meta_path"`
	Status        string `json:"status"`
	Rows          int    `json:"rows"`
	Matched       int    `json:"matched"`
	Unmatched     int    `json:"unmatched"`
	MetaOnly      int    `json:"meta_only"`
	DuplicateMeta int    `json:"duplicate_meta"`
	Error         string `json:"error,omitempty"`
}

func buildJSON(b store.Build) buildOutput {
	return buildOutput{
		ID:                b.ID,
		CreatedAt:         b.CreatedAt,
		BaseDir:           b.BaseDir,
		Archive:           b.Archive,
		Rows:              b.Rows,
		SessionsProcessed: b.SessionsProcessed,
		SessionsSkipped:   b.SessionsSkipped,
		SessionsFailed:    b.SessionsFailed,
	}
}

func buildsJSON(builds []store.Build) []buildOutput {
	out := make([]buildOutput, 0, len(builds))
	for _, b := range builds {
		out = append(out, buildJSON(b))
	}
	return out
}

func sessionsJSON(sessions []store.Session) []sessionOutput {
	out := make([]sessionOutput, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionOutput{
			TextPath:      s.TextPath,
			MetaPath:      s.MetaPath,
			Status:        string(s.Status),
			Rows:          s.Rows,
			Matched:       s.Matched,
			Unmatched:     s.Unmatched,
			MetaOnly:      s.MetaOnly,
			DuplicateMeta: s.DuplicateMeta,
			Error:         s.Error,
		})
	}
	return out
}
