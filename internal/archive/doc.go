// Package archive unpacks the gzip-compressed tar distribution of the
// corpus into a working directory.
//
// Extraction is all-or-error: a missing, unreadable or corrupt archive is
// returned to the caller, which treats it as fatal. Entries that would land
// outside the destination are rejected, and a file lock next to the
// destination keeps two processes from unpacking into the same place.
package archive
