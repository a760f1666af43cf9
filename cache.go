package treestore

import (
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type cacheEntry struct {
	node    Node
	fetched time.Time // zero once invalidated
}

// Cache maps logical keys to their last fetched or written value.
// It is private to one Store and safe for concurrent use.
type Cache struct {
	entries *xsync.MapOf[string, cacheEntry]
	now     func() time.Time
}

// NewCache creates an empty cache. A nil clock defaults to time.Now.
func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: xsync.NewMapOf[string, cacheEntry](),
		now:     now,
	}
}

// Get returns the cached node regardless of its age.
func (c *Cache) Get(key string) (Node, bool) {
	e, ok := c.entries.Load(key)
	return e.node, ok
}

// Set stores node and stamps it with the current time.
func (c *Cache) Set(key string, node Node) {
	c.entries.Store(key, cacheEntry{node: node, fetched: c.now()})
}

// IsFresh reports whether key has an entry younger than ttl.
func (c *Cache) IsFresh(key string, ttl time.Duration) bool {
	e, ok := c.entries.Load(key)
	if !ok || e.fetched.IsZero() {
		return false
	}
	return c.now().Sub(e.fetched) < ttl
}

// Clear removes the entry for key.
func (c *Cache) Clear(key string) {
	c.entries.Delete(key)
}

// ClearRelated removes key, its ancestors and its descendants. Ancestors
// hold assembled objects that embed key, descendants are views into it.
func (c *Cache) ClearRelated(key string) {
	segments := Path(key)
	for i := 1; i <= len(segments); i++ {
		c.entries.Delete(Key(segments[:i]...))
	}
	if len(segments) == 0 {
		return
	}
	prefix := Key(segments...) + Delimiter
	c.entries.Range(func(k string, _ cacheEntry) bool {
		if strings.HasPrefix(k, prefix) {
			c.entries.Delete(k)
		}
		return true
	})
}

// InvalidateAll keeps every value but marks it stale, forcing the next
// read of each key back to the backend. Load uses this on purpose: the
// read that follows a load always pays one backend round trip.
func (c *Cache) InvalidateAll() {
	c.entries.Range(func(k string, _ cacheEntry) bool {
		c.entries.Compute(k, func(old cacheEntry, loaded bool) (cacheEntry, bool) {
			if !loaded {
				return old, true
			}
			old.fetched = time.Time{}
			return old, false
		})
		return true
	})
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Clear()
}

// Len returns the number of entries, stale ones included.
func (c *Cache) Len() int {
	return c.entries.Size()
}
