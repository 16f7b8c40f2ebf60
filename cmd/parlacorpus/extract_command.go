package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"parlacorpus/internal/archive"
	"parlacorpus/internal/config"
	"parlacorpus/internal/logging"
	"parlacorpus/internal/preflight"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var archiveFlag string
	var destFlag string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Unpack the corpus archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyPathOverride(&cfg.Paths.Archive, archiveFlag); err != nil {
				return err
			}
			if err := applyPathOverride(&cfg.Paths.ExtractDir, destFlag); err != nil {
				return err
			}
			if err := runPreflight(cmd, ctx, preflight.Options{SkipPostgres: true}); err != nil {
				return err
			}

			logger, closeLog, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			summary, err := extractArchive(cmd, cfg, logging.NewComponentLogger(logger, "extract"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d files (%s) into %s\n", summary.Files, summary.HumanBytes(), summary.Dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&archiveFlag, "archive", "", "Archive to extract (defaults to paths.archive)")
	cmd.Flags().StringVar(&destFlag, "dest", "", "Destination directory (defaults to paths.extract_dir)")
	return cmd
}

func extractArchive(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (archive.Summary, error) {
	summary, err := archive.Extract(cmd.Context(), cfg.Paths.Archive, cfg.Paths.ExtractDir)
	if err != nil {
		return archive.Summary{}, err
	}
	logger.Info("archive extracted",
		logging.String(logging.FieldEventType, "archive_extracted"),
		logging.String("archive", summary.Archive),
		logging.String("dest", summary.Dest),
		logging.Int("files", summary.Files),
		logging.Int("dirs", summary.Dirs),
		logging.Int("skipped", summary.Skipped),
		logging.String("size", summary.HumanBytes()),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// applyPathOverride replaces *target with the expanded flag value when set.
func applyPathOverride(target *string, flag string) error {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		return nil
	}
	expanded, err := config.ExpandPath(flag)
	if err != nil {
		return err
	}
	*target = expanded
	return nil
}
