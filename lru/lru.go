// Package lru provides a bounded, string-keyed cache with single-flight
// factory invocation. dbcore uses it for two unrelated caches that share the
// same shape: a per-connection prepared-statement-shape set, and the
// gateway's reader-plan cache. Both need "evict the true least-recently-used
// entry" and "never run an expensive factory twice for the same key
// concurrently".
package lru

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Cache is a bounded LRU cache keyed by string, holding values of type V. A
// zero Cache is not usable; construct one with New.
type Cache[V any] struct {
	inner *lru.Cache[string, V]
	group singleflight.Group
}

// New creates a Cache holding at most size entries. size must be positive.
func New[V any](size int) (*Cache[V], error) {
	inner, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{inner: inner}, nil
}

// Get returns the value stored for key, marking it most-recently-used.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.inner.Get(key)
}

// Add stores value for key, evicting the least-recently-used entry if the
// cache is at capacity. It reports whether an eviction occurred.
func (c *Cache[V]) Add(key string, value V) bool {
	return c.inner.Add(key, value)
}

// Remove deletes key from the cache, if present.
func (c *Cache[V]) Remove(key string) {
	c.inner.Remove(key)
}

// Len reports the number of entries currently cached.
func (c *Cache[V]) Len() int {
	return c.inner.Len()
}

// Purge empties the cache.
func (c *Cache[V]) Purge() {
	c.inner.Purge()
}

// GetOrAdd returns the cached value for key, calling factory to produce and
// cache it on a miss. Concurrent GetOrAdd calls for the same key share a
// single in-flight factory invocation: only one goroutine runs factory, and
// every caller — the one that won the race and every one that joined it —
// observes the same value/error pair.
//
// factory must be safe to call with the supplied context; GetOrAdd does not
// itself enforce a timeout, so callers that need one should derive ctx
// accordingly.
func (c *Cache[V]) GetOrAdd(ctx context.Context, key string, factory func(context.Context) (V, error)) (V, error) {
	if v, ok := c.inner.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.inner.Get(key); ok {
			return v, nil
		}
		v, err := factory(ctx)
		if err != nil {
			return v, err
		}
		c.inner.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
