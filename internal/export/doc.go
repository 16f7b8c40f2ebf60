// Package export writes a corpus table to destinations outside the SQLite
// store: a CSV file in the layout the dashboard reads, and a Postgres table
// loaded with COPY.
package export
