// Package preflight provides readiness checks for the files, directories
// and optional services parlacorpus depends on.
//
// These checks run in two contexts:
//   - "parlacorpus extract" and "parlacorpus build" call RunAll before
//     unpacking and stop on the first failed check, so a wrong archive path
//     or a full disk is reported before any work starts.
//   - "parlacorpus check" prints every result as a table.
//
// Optional checks (Postgres) run only when the feature is configured.
package preflight
