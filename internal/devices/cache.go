package devices

import (
	"maps"
	"sync"
	"time"
)

// Cache holds the current observations from one upstream collector, keyed by
// device identifier. Values are the collector's raw field maps; normalization
// happens in the correlation engine. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	fields map[string]any
	seen   time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Set stores or replaces the record for a device.
func (c *Cache) Set(identifier string, fields map[string]any) {
	if identifier == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[identifier] = entry{fields: maps.Clone(fields), seen: time.Now()}
}

// Get returns the record for a device and whether it exists.
func (c *Cache) Get(identifier string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[identifier]
	if !ok {
		return nil, false
	}
	return maps.Clone(e.fields), true
}

// Snapshot returns a copy of every record, detached from the live cache so a
// scoring pass never observes concurrent collector writes.
func (c *Cache) Snapshot() map[string]map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]map[string]any, len(c.entries))
	for id, e := range c.entries {
		out[id] = maps.Clone(e.fields)
	}
	return out
}

// Len returns the number of cached devices.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Prune drops records last written before the cutoff and reports how many
// were removed.
func (c *Cache) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, e := range c.entries {
		if e.seen.Before(cutoff) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}
