// Package config loads, normalizes, and validates parlacorpus configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PARLACORPUS_POSTGRES_DSN. The Config type centralizes every knob the CLI
// needs: where the archive lives, where it is extracted, which naming
// convention pairs speech text with metadata, and where results are stored.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
