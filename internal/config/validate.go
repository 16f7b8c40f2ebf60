package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var sqlIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCorpus(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCorpus() error {
	if len(c.Corpus.TextExtension) < 2 {
		return errors.New("corpus.text_extension must name an extension such as .txt")
	}
	if strings.ContainsAny(c.Corpus.TextExtension, `/\`) {
		return fmt.Errorf("corpus.text_extension %q must not contain path separators", c.Corpus.TextExtension)
	}
	if strings.ContainsAny(c.Corpus.MetaSuffix, `/\`) {
		return fmt.Errorf("corpus.meta_suffix %q must not contain path separators", c.Corpus.MetaSuffix)
	}
	if strings.HasSuffix(c.Corpus.MetaSuffix, c.Corpus.TextExtension) {
		return fmt.Errorf("corpus.meta_suffix %q must not end with the text extension %q", c.Corpus.MetaSuffix, c.Corpus.TextExtension)
	}
	return nil
}

func (c *Config) validateExport() error {
	if !sqlIdentifierPattern.MatchString(c.Export.PostgresTable) {
		return fmt.Errorf("export.postgres_table %q must be a plain SQL identifier", c.Export.PostgresTable)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
