package shader

import (
	"slices"
	"sync"
)

// Cache holds compiled libraries keyed by source. When the number of
// entries exceeds the soft limit, the least recently used quarter is
// evicted. Compilation failures are not cached.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	opts      Options
	entries   map[Source]*cacheEntry
	softLimit int
	tick      int64

	hits, misses uint64
}

type cacheEntry struct {
	lib   *Library
	atime int64
}

// NewCache returns a cache compiling with opts. A softLimit of 0 means
// unlimited.
func NewCache(softLimit int, opts Options) *Cache {
	return &Cache{
		opts:      opts,
		entries:   make(map[Source]*cacheEntry),
		softLimit: softLimit,
	}
}

// Compile returns the cached library for src, compiling it on a miss.
// Compilation runs under the cache lock so a source is compiled at most
// once.
func (c *Cache) Compile(src Source) (*Library, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if e, ok := c.entries[src]; ok {
		e.atime = c.tick
		c.hits++
		return e.lib, nil
	}
	c.misses++
	lib, err := CompileWithOptions(src, c.opts)
	if err != nil {
		return nil, err
	}
	c.entries[src] = &cacheEntry{lib: lib, atime: c.tick}
	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
	return lib, nil
}

// Len returns the number of cached libraries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// evictOldest shrinks the cache to three quarters of the soft limit.
// Caller must hold c.mu.
func (c *Cache) evictOldest() {
	target := max(c.softLimit*3/4, 1)
	if len(c.entries) <= target {
		return
	}
	keys := make([]Source, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Source) int {
		return int(c.entries[a].atime - c.entries[b].atime)
	})
	for _, k := range keys[:len(keys)-target] {
		delete(c.entries, k)
	}
}
