package treestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errMockBackend = errors.New("mock backend error")

// countingBackend wraps a Backend and counts calls per operation.
type countingBackend struct {
	Backend
	mu    sync.Mutex
	calls map[string]int
}

func newCountingBackend(b Backend) *countingBackend {
	return &countingBackend{Backend: b, calls: make(map[string]int)}
}

func (c *countingBackend) inc(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[op]++
}

func (c *countingBackend) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *countingBackend) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *countingBackend) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[string]int)
}

func (c *countingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	c.inc("get")
	return c.Backend.Get(ctx, key)
}

func (c *countingBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.inc("set")
	return c.Backend.Set(ctx, key, value, ttl)
}

func (c *countingBackend) Del(ctx context.Context, keys ...string) (int64, error) {
	c.inc("del")
	return c.Backend.Del(ctx, keys...)
}

func (c *countingBackend) SMembers(ctx context.Context, key string) ([]string, error) {
	c.inc("smembers")
	return c.Backend.SMembers(ctx, key)
}

func (c *countingBackend) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	c.inc("sadd")
	return c.Backend.SAdd(ctx, key, members...)
}

func (c *countingBackend) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	c.inc("srem")
	return c.Backend.SRem(ctx, key, members...)
}

// flakyBackend embeds Memory and fails the operations named in failing.
type flakyBackend struct {
	*Memory
	mu      sync.Mutex
	failing map[string]bool
	// failKey restricts failures to backend keys containing it, when set.
	failKey string
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{Memory: NewMemory(), failing: make(map[string]bool)}
}

func (f *flakyBackend) fail(ops ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range ops {
		f.failing[op] = true
	}
}

func (f *flakyBackend) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = make(map[string]bool)
	f.failKey = ""
}

func (f *flakyBackend) shouldFail(op, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.failing[op] {
		return false
	}
	return f.failKey == "" || strings.Contains(key, f.failKey)
}

func (f *flakyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if f.shouldFail("get", key) {
		return nil, errMockBackend
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.shouldFail("set", key) {
		return errMockBackend
	}
	return f.Memory.Set(ctx, key, value, ttl)
}

func (f *flakyBackend) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) > 0 && f.shouldFail("del", keys[0]) {
		return 0, errMockBackend
	}
	return f.Memory.Del(ctx, keys...)
}

func (f *flakyBackend) SMembers(ctx context.Context, key string) ([]string, error) {
	if f.shouldFail("smembers", key) {
		return nil, errMockBackend
	}
	return f.Memory.SMembers(ctx, key)
}

func (f *flakyBackend) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if f.shouldFail("sadd", key) {
		return 0, errMockBackend
	}
	return f.Memory.SAdd(ctx, key, members...)
}

func (f *flakyBackend) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	if f.shouldFail("srem", key) {
		return 0, errMockBackend
	}
	return f.Memory.SRem(ctx, key, members...)
}

// fakeClock is a manually advanced clock for cache freshness tests.
type fakeClock struct {
	nanos atomic.Int64
}

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.nanos.Store(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	return c
}

func (c *fakeClock) Now() time.Time {
	return time.Unix(0, c.nanos.Load()).UTC()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.nanos.Add(int64(d))
}

// mockLogger captures log messages for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) Info(ctx context.Context, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf("INFO: "+format, args...))
}

func (m *mockLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf("WARN: "+format, args...))
}

func (m *mockLogger) Error(ctx context.Context, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf("ERROR: "+format, args...))
}

func (m *mockLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf("DEBUG: "+format, args...))
}

func (m *mockLogger) getMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.messages...)
}

func (m *mockLogger) contains(substring string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if strings.Contains(msg, substring) {
			return true
		}
	}
	return false
}

func newTestStore(t *testing.T, b Backend, opts ...Option) *Store {
	t.Helper()
	s, err := New(b, opts...)
	require.NoError(t, err)
	return s
}
