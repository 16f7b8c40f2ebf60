package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"parlacorpus/internal/archive"
	"parlacorpus/internal/config"
	"parlacorpus/internal/corpus"
	"parlacorpus/internal/export"
	"parlacorpus/internal/logging"
	"parlacorpus/internal/preflight"
	"parlacorpus/internal/schema"
	"parlacorpus/internal/store"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var skipExtract bool
	var baseFlag string
	var csvFlag string
	var postgres bool
	var keep int
	var listSessions bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble the utterance corpus and store it as a new build",
		Long: "Extracts the archive when the extraction is missing or older than the archive,\n" +
			"walks the corpus directory, joins every session text file with its metadata\n" +
			"table and stores the result in the build database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyPathOverride(&cfg.Export.CSVPath, csvFlag); err != nil {
				return err
			}
			if postgres && cfg.Export.PostgresDSN == "" {
				return errors.New("--postgres needs export.postgres_dsn or PARLACORPUS_POSTGRES_DSN")
			}
			base, closeLog, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			logger := logging.NewComponentLogger(base, "build")

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire build lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another build is running (lock %s)", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			baseDir := cfg.Paths.CorpusDir
			extract := !skipExtract
			if strings.TrimSpace(baseFlag) != "" {
				if err := applyPathOverride(&baseDir, baseFlag); err != nil {
					return err
				}
				extract = false
			}

			var archivePath string
			if extract {
				archivePath = cfg.Paths.Archive
				if err := ensureExtracted(cmd, ctx, cfg, logger, postgres); err != nil {
					return err
				}
			}

			loader := corpus.NewLoader(
				corpus.WithNaming(namingFromConfig(cfg)),
				corpus.WithLogger(base),
			)
			result, err := loader.Load(cmd.Context(), baseDir)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open build store: %w", err)
			}
			defer st.Close()

			build, err := st.SaveBuild(cmd.Context(), store.Build{
				ID:      store.NewBuildID(),
				BaseDir: baseDir,
				Archive: archivePath,
			}, result)
			if err != nil {
				return err
			}
			logger = logger.With(logging.String(logging.FieldBuildID, build.ID))
			logger.Info("build stored",
				logging.String(logging.FieldEventType, "build_stored"),
				logging.Int("rows", build.Rows),
				logging.String("database", st.Path()),
			)

			if err := exportBuild(cmd, cfg, logger, result.Table, postgres); err != nil {
				return err
			}
			if keep > 0 {
				removed, err := st.PruneBuilds(cmd.Context(), keep)
				if err != nil {
					return err
				}
				if removed > 0 {
					logger.Info("old builds pruned",
						logging.String(logging.FieldEventType, "builds_pruned"),
						logging.Int("removed", removed),
						logging.Int("kept", keep),
					)
				}
			}

			printBuildSummary(cmd, build, result, listSessions)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipExtract, "skip-extract", false, "Use the existing extraction without checking the archive")
	cmd.Flags().StringVar(&baseFlag, "base", "", "Corpus directory to walk (implies --skip-extract)")
	cmd.Flags().StringVar(&csvFlag, "csv", "", "Also write the corpus to this CSV file")
	cmd.Flags().BoolVar(&postgres, "postgres", false, "Also copy the corpus into the configured Postgres table")
	cmd.Flags().IntVar(&keep, "keep", 0, "Keep only the newest N builds (0 keeps all)")
	cmd.Flags().BoolVar(&listSessions, "sessions", false, "List every session, not just the totals")
	return cmd
}

// ensureExtracted unpacks the archive unless a complete extraction at least
// as new as the archive already exists.
func ensureExtracted(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, logger *slog.Logger, postgres bool) error {
	fresh, err := archive.UpToDate(cfg.Paths.Archive, cfg.Paths.ExtractDir)
	if err == nil && fresh {
		logger.Info("extraction up to date",
			logging.String(logging.FieldEventType, "extraction_reused"),
			logging.String("dest", cfg.Paths.ExtractDir),
		)
		return nil
	}
	if err := runPreflight(cmd, ctx, preflight.Options{SkipPostgres: !postgres}); err != nil {
		return err
	}
	_, err = extractArchive(cmd, cfg, logger)
	return err
}

func exportBuild(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, table *corpus.Table, postgres bool) error {
	if cfg.Export.CSVPath != "" {
		if err := export.WriteCSVFile(cfg.Export.CSVPath, table); err != nil {
			return err
		}
		logger.Info("csv export written",
			logging.String(logging.FieldEventType, "csv_exported"),
			logging.String(logging.FieldFile, cfg.Export.CSVPath),
			logging.Int("rows", table.Len()),
		)
	}
	if postgres {
		sink := export.PostgresSink{DSN: cfg.Export.PostgresDSN, Table: cfg.Export.PostgresTable}
		copied, err := sink.Write(cmd.Context(), table)
		if err != nil {
			return err
		}
		logger.Info("postgres export written",
			logging.String(logging.FieldEventType, "postgres_exported"),
			logging.String("table", cfg.Export.PostgresTable),
			logging.Int64("rows", copied),
		)
	}
	return nil
}

func printBuildSummary(cmd *cobra.Command, build store.Build, result *corpus.Corpus, listSessions bool) {
	out := cmd.OutOrStdout()

	if listSessions {
		rows := make([][]string, 0, len(result.Sessions))
		for _, s := range result.Sessions {
			detail := ""
			if s.Err != nil {
				detail = s.Err.Error()
			} else if s.Status == corpus.StatusSkipped {
				detail = "missing " + filepath.Base(s.MetaPath)
			}
			rows = append(rows, []string{
				relativeTo(result.BaseDir, s.TextPath),
				string(s.Status),
				strconv.Itoa(s.Rows),
				strconv.Itoa(s.Stats.Unmatched),
				detail,
			})
		}
		printTable(cmd, []string{"Session", "Status", "Rows", "Unmatched", "Detail"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft})
	} else {
		rows := [][]string{
			{string(corpus.StatusProcessed), strconv.Itoa(build.SessionsProcessed)},
			{string(corpus.StatusSkipped), strconv.Itoa(build.SessionsSkipped)},
			{string(corpus.StatusFailed), strconv.Itoa(build.SessionsFailed)},
		}
		printTable(cmd, []string{"Status", "Sessions"}, rows, []columnAlignment{alignLeft, alignRight})
	}

	fmt.Fprintf(out, "Build %s: %d rows, %d columns\n", build.ID, build.Rows, len(result.Table.Columns))
	coverage := schema.Dashboard.CheckTable(result.Table)
	if len(coverage.Pending) > 0 {
		fmt.Fprintf(out, "Added by enrichment: %s\n", strings.Join(coverage.Pending, ", "))
	}
	if !coverage.Complete() {
		fmt.Fprintf(out, "Missing dashboard columns: %s\n", strings.Join(coverage.Missing, ", "))
	}
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
