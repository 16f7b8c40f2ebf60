// Package main hosts the parlacorpus CLI entrypoint and command graph.
//
// The Cobra command tree unpacks the ParlaMint archive, assembles the
// utterance corpus from its session files, stores each build in SQLite and
// exports it to CSV or Postgres. The stats and schema commands read the
// enriched dashboard dataset that downstream tooling produces from those
// exports.
//
// Configuration resolution and logger setup live in commandContext so the
// subcommands only wire internal packages together.
package main
