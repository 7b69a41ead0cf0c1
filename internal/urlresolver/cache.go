package urlresolver

import "sync"

// Entry is one cached resolution: which base URL a target fingerprint uses.
type Entry struct {
	Key     string `json:"-"`
	URL     string `json:"url"`
	IsLocal bool   `json:"isLocal"`
}

// Cache stores resolutions by fingerprint. Entries never expire on their own.
type Cache interface {
	Get(key string) (Entry, bool)
	Set(entry Entry)
	Delete(key string)
	Clear()
}

// MemoryCache is a process-wide Cache with last-writer-wins semantics.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return e, ok
}

func (c *MemoryCache) Set(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[entry.Key] = entry
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
}
