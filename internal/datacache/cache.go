package datacache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LoadFunc produces the cached value for a path.
type LoadFunc[T any] func(path string) (T, error)

type fileKey struct {
	modTime time.Time
	size    int64
}

type entry[T any] struct {
	key   fileKey
	value T
}

// Stats counts cache activity.
type Stats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache holds at most one value per path. It is safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	load    LoadFunc[T]
	entries map[string]entry[T]
	hits    int
	misses  int
}

// New returns an empty cache that fills itself with load.
func New[T any](load LoadFunc[T]) *Cache[T] {
	return &Cache[T]{load: load, entries: make(map[string]entry[T])}
}

// Get returns the value for path, loading it when there is no entry or the
// file's modification time or size changed since it was loaded. Load
// errors are not cached.
func (c *Cache[T]) Get(path string) (T, error) {
	var zero T
	abs, err := normalize(path)
	if err != nil {
		return zero, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		c.Invalidate(abs)
		return zero, fmt.Errorf("stat %s: %w", path, err)
	}
	key := fileKey{modTime: info.ModTime(), size: info.Size()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[abs]; ok && e.key.size == key.size && e.key.modTime.Equal(key.modTime) {
		c.hits++
		return e.value, nil
	}
	c.misses++
	value, err := c.load(abs)
	if err != nil {
		delete(c.entries, abs)
		return zero, err
	}
	c.entries[abs] = entry[T]{key: key, value: value}
	return value, nil
}

// Invalidate drops the entry for path.
func (c *Cache[T]) Invalidate(path string) {
	abs, err := normalize(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, abs)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// Stats returns hit and miss counts since creation.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

func normalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}
