package treestore

import (
	"context"
	"errors"
	"time"
)

// ScopedClient exposes the raw backend primitives under a namespace.
// Keys are prefixed as "namespace:key". It has no cache and no tree
// awareness, which makes it the place for counters and expiring keys.
type ScopedClient struct {
	namespace string
	backend   Backend
	store     *Store
}

// Client returns a ScopedClient bound to the store's namespace, or to
// namespace nested under it when namespace is not empty.
func (s *Store) Client(namespace string) *ScopedClient {
	ns := s.namespace
	if namespace != "" {
		ns = s.key(namespace)
	}
	return &ScopedClient{namespace: ns, backend: s.backend, store: s}
}

// Namespace returns the prefix applied to every key.
func (c *ScopedClient) Namespace() string { return c.namespace }

func (c *ScopedClient) key(k string) string {
	return BackendKey(c.namespace, k)
}

func (c *ScopedClient) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.backend.Get(ctx, c.key(key))
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.store.logf("error", ctx, "Get %s failed: %v", c.key(key), err)
	}
	return data, err
}

// Set stores value at key. A ttl <= 0 means no expiration.
func (c *ScopedClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.backend.Set(ctx, c.key(key), value, ttl)
	if err != nil {
		c.store.logf("error", ctx, "Set %s failed: %v", c.key(key), err)
	}
	return err
}

// Del removes keys and returns how many existed.
func (c *ScopedClient) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.key(k)
	}
	n, err := c.backend.Del(ctx, fullKeys...)
	if err != nil {
		c.store.logf("error", ctx, "Del failed: %v", err)
	}
	return n, err
}

func (c *ScopedClient) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.backend.SMembers(ctx, c.key(key))
	if err != nil {
		c.store.logf("error", ctx, "SMembers %s failed: %v", c.key(key), err)
	}
	return members, err
}

func (c *ScopedClient) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	n, err := c.backend.SAdd(ctx, c.key(key), members...)
	if err != nil {
		c.store.logf("error", ctx, "SAdd %s failed: %v", c.key(key), err)
	}
	return n, err
}

func (c *ScopedClient) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	n, err := c.backend.SRem(ctx, c.key(key), members...)
	if err != nil {
		c.store.logf("error", ctx, "SRem %s failed: %v", c.key(key), err)
	}
	return n, err
}

// ZIncrBy adds increment to member's score in the sorted set at key.
func (c *ScopedClient) ZIncrBy(ctx context.Context, key string, increment float64, member string) (float64, error) {
	score, err := c.backend.ZIncrBy(ctx, c.key(key), increment, member)
	if err != nil {
		c.store.logf("error", ctx, "ZIncrBy %s failed: %v", c.key(key), err)
	}
	return score, err
}

// Expire sets or updates the TTL of an existing key.
func (c *ScopedClient) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.backend.Expire(ctx, c.key(key), ttl)
	if err != nil {
		c.store.logf("error", ctx, "Expire %s failed: %v", c.key(key), err)
	}
	return ok, err
}
