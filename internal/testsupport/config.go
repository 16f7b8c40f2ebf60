package testsupport

import (
	"path/filepath"
	"testing"

	"parlacorpus/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose paths all live in a per-test temp
// directory. The corpus directory is <base>/extract/ParlaMint-AT.txt.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Archive = filepath.Join(base, "ParlaMint-AT.tgz")
	cfgVal.Paths.ExtractDir = filepath.Join(base, "extract")
	cfgVal.Paths.CorpusDir = filepath.Join(base, "extract", "ParlaMint-AT.txt")
	cfgVal.Paths.Database = filepath.Join(base, "data", "corpus.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Export.PostgresDSN = ""
	cfgVal.Dataset.Path = filepath.Join(base, "dashboard.csv")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCSVExport sets the CSV export path relative to the test directory.
func WithCSVExport(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.CSVPath = filepath.Join(b.baseDir, name)
	}
}

// WithPostgresDSN sets the Postgres export DSN.
func WithPostgresDSN(dsn string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.PostgresDSN = dsn
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
