// Package corpus assembles the ParlaMint speech corpus from an extracted
// archive.
//
// A session directory holds speech text files (ID<TAB>text, no header) and,
// next to each X.txt, a metadata table X-meta-en.tsv keyed by the same ID.
// The Loader walks a directory tree, pairs every text file with its metadata
// file, strips [[...]] transcription annotations from the speech text,
// left-joins text onto metadata, and concatenates all sessions into one Table.
//
// Per-session failures are logged and skipped; only an empty result is fatal
// (ErrNoValidData), since it almost always means a wrong path or a broken
// naming convention rather than a legitimately empty corpus.
package corpus
