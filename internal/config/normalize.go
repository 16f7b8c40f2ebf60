package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCorpus()
	if err := c.normalizeExport(); err != nil {
		return err
	}
	if err := c.normalizeDataset(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.archive", &c.Paths.Archive, defaultArchive},
		{"paths.extract_dir", &c.Paths.ExtractDir, defaultExtractDir},
		{"paths.corpus_dir", &c.Paths.CorpusDir, defaultCorpusDir},
		{"paths.database", &c.Paths.Database, defaultDatabase},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeCorpus() {
	c.Corpus.TextExtension = strings.TrimSpace(c.Corpus.TextExtension)
	if c.Corpus.TextExtension == "" {
		c.Corpus.TextExtension = defaultTextExtension
	}
	if !strings.HasPrefix(c.Corpus.TextExtension, ".") {
		c.Corpus.TextExtension = "." + c.Corpus.TextExtension
	}
	c.Corpus.MetaSuffix = strings.TrimSpace(c.Corpus.MetaSuffix)
	if c.Corpus.MetaSuffix == "" {
		c.Corpus.MetaSuffix = defaultMetaSuffix
	}
	// The readme marker is matched case-sensitively, so only whitespace is trimmed.
	c.Corpus.ReadmePrefix = strings.TrimSpace(c.Corpus.ReadmePrefix)
}

func (c *Config) normalizeExport() error {
	if strings.TrimSpace(c.Export.CSVPath) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Export.CSVPath))
		if err != nil {
			return fmt.Errorf("export.csv_path: %w", err)
		}
		c.Export.CSVPath = expanded
	}
	c.Export.PostgresDSN = strings.TrimSpace(c.Export.PostgresDSN)
	if c.Export.PostgresDSN == "" {
		if value, ok := os.LookupEnv(postgresDSNEnvVar); ok {
			c.Export.PostgresDSN = strings.TrimSpace(value)
		}
	}
	c.Export.PostgresTable = strings.TrimSpace(c.Export.PostgresTable)
	if c.Export.PostgresTable == "" {
		c.Export.PostgresTable = defaultPostgresTable
	}
	return nil
}

func (c *Config) normalizeDataset() error {
	if strings.TrimSpace(c.Dataset.Path) == "" {
		c.Dataset.Path = defaultDatasetPath
	}
	expanded, err := expandPath(strings.TrimSpace(c.Dataset.Path))
	if err != nil {
		return fmt.Errorf("dataset.path: %w", err)
	}
	c.Dataset.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
