// Package cache provides TTL-bounded in-memory memoization for the four
// resource classes the engine depends on: configuration values, the tabular
// store handle, the customer index and the booking index.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero => no TTL
}

// Cache is a TTL-bounded key/value map. A read after expiry behaves
// identically to a miss. The clock is injectable for tests.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	now     func() time.Time
}

func New[V any]() *Cache[V] {
	return NewWithClock[V](time.Now)
}

func NewWithClock[V any](now func() time.Time) *Cache[V] {
	return &Cache[V]{entries: make(map[string]entry[V]), now: now}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		// Expired entries are dropped lazily here and eagerly by Sweep.
		c.dropExpired(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// dropExpired deletes key only if the entry is still expired under the
// write lock; a Set that landed after the read must survive.
func (c *Cache[V]) dropExpired(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Set stores value under key. A non-positive ttl stores it without expiry.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePrefix drops every entry whose key starts with prefix.
// An empty prefix clears the whole namespace.
func (c *Cache[V]) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Sweep removes expired entries and reports how many were dropped.
func (c *Cache[V]) Sweep() int {
	now := c.now()
	dropped := 0

	c.mu.Lock()
	for k, e := range c.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(c.entries, k)
			dropped++
		}
	}
	c.mu.Unlock()

	return dropped
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
