package preflight

import (
	"context"
	"strings"

	"parlacorpus/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects which groups of checks RunAll performs.
type Options struct {
	// SkipArchive omits the archive and free space checks, for builds that
	// reuse an existing extraction.
	SkipArchive bool
	// SkipPostgres omits the database reachability check even when a DSN
	// is configured.
	SkipPostgres bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if !opts.SkipArchive {
		archive := CheckArchive("Archive", cfg.Paths.Archive)
		results = append(results, archive)
		results = append(results, CheckDestination("Extraction directory", cfg.Paths.ExtractDir))
		if archive.Passed {
			results = append(results, CheckFreeSpace("Free space", cfg.Paths.ExtractDir, cfg.Paths.Archive))
		}
	}

	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if !opts.SkipPostgres && strings.TrimSpace(cfg.Export.PostgresDSN) != "" {
		results = append(results, CheckPostgres(ctx, cfg.Export.PostgresDSN))
	}

	return results
}

// FirstFailure returns the first failed result.
func FirstFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if !r.Passed {
			return r, true
		}
	}
	return Result{}, false
}
