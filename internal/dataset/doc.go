// Package dataset reads the enriched dashboard CSV and answers the
// questions the dashboard asks of it: which sessions exist and when they
// started, and how utterance counts and sentiment break down by speaker,
// party, topic or any other categorical column within a date range.
package dataset
