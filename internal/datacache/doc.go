// Package datacache memoizes file-derived values, such as a parsed dataset,
// keyed by path. An entry is reused only while the file's modification
// time and size are unchanged; callers can also drop entries explicitly or
// let a Watcher drop them when the file changes on disk.
package datacache
