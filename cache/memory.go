package cache

import (
	"sync"
	"time"
)

// memoryEntry holds a rendering with the time it was stored.
type memoryEntry struct {
	value    string
	storedAt time.Time
}

// InMemoryCache is a process-local Store with optional TTL. Safe for
// concurrent use; contents are lost when the process exits.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryCache creates an in-memory cache with the specified TTL.
// If ttlSeconds is 0 or negative, entries never expire.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &InMemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value and true if present and not expired.
// Expired entries are evicted on access.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if c.expired(entry, c.now()) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry.
		if cur, ok := c.entries[key]; ok && c.expired(cur, c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}

	return entry.value, true
}

// Set stores a value, overwriting any previous one.
func (c *InMemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		value:    value,
		storedAt: c.now(),
	}
	return nil
}

// Delete removes a single key.
func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries (including expired ones not yet evicted).
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
}

// Entries returns all non-expired entries. Used for cache export.
func (c *InMemoryCache) Entries() (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	result := make(map[string]string, len(c.entries))
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			continue
		}
		result[key] = entry.value
	}
	return result, nil
}

func (c *InMemoryCache) expired(e memoryEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.storedAt) > c.ttl
}

// Verify InMemoryCache implements Store
var _ Store = (*InMemoryCache)(nil)
