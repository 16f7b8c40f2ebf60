// Package store persists built corpora in SQLite so later commands can list
// builds and reload a table without walking the extracted archive again.
//
// Every build gets a UUID. Its column order, per-session outcomes, and
// utterance rows are stored alongside it. Metadata columns other than ID and
// text are kept as a JSON object per utterance; a column absent from the
// object is null.
package store
