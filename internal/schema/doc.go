// Package schema states the column contract between the corpus loader and
// the dashboard dataset. The dashboard reads an enriched CSV; some of its
// columns come straight from the loader, others are added by downstream
// sentiment and topic steps. Check validates a CSV header against the
// contract and CheckTable reports how much of it a loaded corpus covers.
package schema
