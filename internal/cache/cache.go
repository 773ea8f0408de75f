// Package cache provides a small TTL cache for report payloads keyed
// by query fingerprint. Eviction at capacity is FIFO by insertion
// time, not LRU by access: a hot entry still ages out, which keeps
// report series from going stale while the underlying data changes.
package cache

import (
	"sync"
	"time"
)

const (
	defaultTTL           = 5 * time.Minute
	defaultMaxSize       = 10
	defaultSweepInterval = time.Minute
)

type entry struct {
	insertedAt time.Time
	payload    any
}

// Cache is a thread-safe fingerprint -> payload map with a TTL and a
// size bound. Expired entries are removed lazily on Get and by a
// background sweep.
type Cache struct {
	entries map[string]entry
	stopCh  chan struct{}
	now     func() time.Time
	ttl     time.Duration
	maxSize int
	mu      sync.RWMutex
	once    sync.Once
}

// New creates a cache with the given capacity and TTL and starts the
// background sweep. Call Close to stop it.
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	c := &Cache{
		entries: make(map[string]entry),
		stopCh:  make(chan struct{}),
		now:     time.Now,
		ttl:     ttl,
		maxSize: maxSize,
	}

	go c.sweep()

	return c
}

// Get returns the payload for key if it is present and fresh. An
// expired entry is removed on the spot and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.now().Sub(e.insertedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}

	return e.payload, true
}

// Set stores payload under key. When the cache is at capacity the
// single oldest entry by insertion time is evicted first. Re-setting
// an existing key refreshes its payload and insertion time.
func (c *Cache) Set(key string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxSize {
			c.evictOldestLocked()
		}
	}

	c.entries[key] = entry{
		payload:    payload,
		insertedAt: c.now(),
	}
}

// evictOldestLocked removes the entry with the earliest insertion
// time. Caller holds c.mu.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true

	for key, e := range c.entries {
		if first || e.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.insertedAt
			first = false
		}
	}

	if !first {
		delete(c.entries, oldestKey)
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Size returns the number of live entries, expired or not.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// sweep periodically removes expired entries.
func (c *Cache) sweep() {
	ticker := time.NewTicker(defaultSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now()
			for key, e := range c.entries {
				if now.Sub(e.insertedAt) >= c.ttl {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the sweep goroutine. The cache remains usable.
func (c *Cache) Close() {
	c.once.Do(func() {
		close(c.stopCh)
	})
}
