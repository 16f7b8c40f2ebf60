package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"parlacorpus/internal/config"
	"parlacorpus/internal/preflight"
	"parlacorpus/internal/store"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipArchive bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run preflight checks for extraction, logging and export",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{SkipArchive: skipArchive})
			results = append(results, checkStore(cmd, cfg))

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			printTable(cmd, []string{"Check", "Status", "Detail"}, rows, nil)

			if failed, ok := preflight.FirstFailure(results); ok {
				return fmt.Errorf("preflight check %q failed: %s", failed.Name, failed.Detail)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipArchive, "skip-archive", false, "Skip archive and free space checks")
	return cmd
}

// checkStore opens the build database, applying pending migrations.
func checkStore(cmd *cobra.Command, cfg *config.Config) preflight.Result {
	result := preflight.Result{Name: "Build database"}
	st, err := store.Open(cfg)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	defer st.Close()
	version, err := st.SchemaVersion(cmd.Context())
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("%s (schema %s)", st.Path(), version)
	return result
}

// runPreflight fails with the first failing check.
func runPreflight(cmd *cobra.Command, ctx *commandContext, opts preflight.Options) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if failed, ok := preflight.FirstFailure(preflight.RunAll(cmd.Context(), cfg, opts)); ok {
		return fmt.Errorf("preflight check %q failed: %s", failed.Name, failed.Detail)
	}
	return nil
}
