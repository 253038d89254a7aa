// Package modelcache keeps decoded model artifacts in memory. Loads are
// de-duplicated per key with singleflight, and an entry is dropped as soon as
// the stored object's version changes or its TTL expires.
package modelcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value    V
	version  string
	loadedAt time.Time
}

// Cache is safe for concurrent use. Cached values are shared between callers
// and must be treated as read-only.
type Cache[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry[V]
	group   singleflight.Group
}

// New creates a Cache. A ttl of zero keeps entries until their version
// changes.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the value for key at version, calling load at most once across
// concurrent callers when it is missing or stale. hit reports whether the
// value came from the cache. Errors are shared by every caller waiting on
// the same load.
func (c *Cache[V]) Get(ctx context.Context, key, version string, load func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.lookup(key, version); ok {
		return v, true, nil
	}

	res, err, _ := c.group.Do(key+"\x00"+version, func() (any, error) {
		if v, ok := c.lookup(key, version); ok {
			return v, nil
		}
		// The load outlives any single caller's cancellation.
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		c.entries[key] = entry[V]{value: v, version: version, loadedAt: c.now()}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), false, nil
}

func (c *Cache[V]) lookup(key, version string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.version != version {
		var zero V
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.loadedAt) > c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Invalidate drops key.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
