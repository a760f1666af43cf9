package treestore

import (
	"context"
	"sort"
	"sync"
	"time"
)

type entryKind uint8

const (
	kindString entryKind = iota
	kindSet
	kindZSet
)

type entry struct {
	kind   entryKind
	value  []byte
	set    map[string]struct{}
	zset   map[string]float64
	expire time.Time
}

// Memory implements Backend with thread-safe in-memory storage.
// It follows Redis semantics: empty sets disappear, SET replaces a value
// of any type and clears its expiry, and reading a key as the wrong type
// fails with ErrTypeMismatch.
type Memory struct {
	mu   sync.RWMutex
	data map[string]entry
}

var _ Backend = (*Memory)(nil)

// NewMemory creates an in-memory Backend instance.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]entry)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	// Fast path: optimistic read with RLock.
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if !e.expired() {
		if e.kind != kindString {
			return nil, ErrTypeMismatch
		}
		return clone(e.value), nil
	}

	// Slow path: entry expired, need write lock to delete.
	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check after acquiring write lock (double-check pattern).
	e, ok = m.data[key]
	if !ok {
		return nil, ErrNotFound
	}

	if e.expired() {
		delete(m.data, key)
		return nil, ErrNotFound
	}

	if e.kind != kindString {
		return nil, ErrTypeMismatch
	}
	return clone(e.value), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entry{kind: kindString, value: clone(value), expire: expiry(ttl)}
	return nil
}

func (m *Memory) Del(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, key := range keys {
		if _, ok := m.live(key); ok {
			n++
		}
		delete(m.data, key)
	}
	return n, nil
}

func (m *Memory) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return []string{}, nil
	}
	if e.kind != kindSet {
		return nil, ErrTypeMismatch
	}

	members := make([]string, 0, len(e.set))
	for member := range e.set {
		members = append(members, member)
	}
	sort.Strings(members)
	return members, nil
}

func (m *Memory) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		e = entry{kind: kindSet, set: make(map[string]struct{})}
	} else if e.kind != kindSet {
		return 0, ErrTypeMismatch
	}

	var added int64
	for _, member := range members {
		if _, exists := e.set[member]; !exists {
			e.set[member] = struct{}{}
			added++
		}
	}
	m.data[key] = e
	return added, nil
}

func (m *Memory) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return 0, nil
	}
	if e.kind != kindSet {
		return 0, ErrTypeMismatch
	}

	var removed int64
	for _, member := range members {
		if _, exists := e.set[member]; exists {
			delete(e.set, member)
			removed++
		}
	}
	if len(e.set) == 0 {
		delete(m.data, key)
	}
	return removed, nil
}

// ZIncrBy adds increment to member's score, creating the sorted set if needed.
func (m *Memory) ZIncrBy(ctx context.Context, key string, increment float64, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		e = entry{kind: kindZSet, zset: make(map[string]float64)}
	} else if e.kind != kindZSet {
		return 0, ErrTypeMismatch
	}

	e.zset[member] += increment
	m.data[key] = e
	return e.zset[member], nil
}

// Expire sets or updates the TTL for a key. A non-positive ttl deletes the key.
func (m *Memory) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return false, nil
	}
	if ttl <= 0 {
		delete(m.data, key)
		return true, nil
	}

	e.expire = expiry(ttl)
	m.data[key] = e
	return true, nil
}

// TTL returns the remaining time-to-live. Returns -1 if key has no expiration, ErrNotFound if key doesn't exist.
func (m *Memory) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return 0, ErrNotFound
	}
	if e.expire.IsZero() {
		return -1, nil
	}
	return time.Until(e.expire), nil
}

// Len returns the number of live keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key := range m.data {
		if _, ok := m.live(key); ok {
			n++
		}
	}
	return n
}

// live returns the entry for key, dropping it if expired.
// Callers must hold the write lock.
func (m *Memory) live(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return entry{}, false
	}
	if e.expired() {
		delete(m.data, key)
		return entry{}, false
	}
	return e, true
}

func (e entry) expired() bool {
	if e.expire.IsZero() {
		return false
	}
	return time.Now().After(e.expire)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func clone(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}
