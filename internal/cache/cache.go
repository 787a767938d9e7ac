// Package cache provides an in-memory TTL cache for directory display names.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL bounds how stale a renamed student or instructor can appear.
const DefaultTTL = 10 * time.Minute

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is a thread-safe in-memory TTL cache. A disabled cache never hits.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
	ttl     time.Duration
	now     func() time.Time
}

// New creates a new cache. Pass enabled=false to create a no-op cache.
func New(enabled bool, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a cached value and whether the entry was found and fresh.
func (c *Cache) Get(key string) (string, bool) {
	if c == nil || !c.enabled {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.entries[key]
	if !exists || c.now().After(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

// Set stores a value with the cache TTL.
func (c *Cache) Set(key, value string) {
	if c == nil || !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() map[string]interface{} {
	if c == nil {
		return map[string]interface{}{"enabled": false}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	now := c.now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	return map[string]interface{}{
		"enabled":      c.enabled,
		"ttl":          c.ttl.String(),
		"total_keys":   len(c.entries),
		"active_keys":  active,
		"expired_keys": len(c.entries) - active,
	}
}

// Evict removes expired entries. Called from the maintenance loop.
func (c *Cache) Evict() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
