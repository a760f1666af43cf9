package treestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Namespace(t *testing.T) {
	s := newTestStore(t, NewMemory())
	assert.Equal(t, "config", s.Client("").Namespace())
	assert.Equal(t, "config:sessions", s.Client("sessions").Namespace())

	bare := newTestStore(t, NewMemory(), WithNamespace(""))
	assert.Equal(t, "", bare.Client("").Namespace())
	assert.Equal(t, "sessions", bare.Client("sessions").Namespace())
}

func TestClient_KeyConstruction(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c := newTestStore(t, m).Client("sessions")

	require.NoError(t, c.Set(ctx, "u1", []byte("token"), 0))
	assert.Equal(t, "token", literal(t, m, "config:sessions:u1"))

	data, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("token"), data)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Del(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c := newTestStore(t, m).Client("")

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	n, err := c.Del(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = c.Del(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClient_Sets(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c := newTestStore(t, m).Client("tags")

	n, err := c.SAdd(ctx, "t", "b", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"a", "b"}, members(t, m, "config:tags:t"))

	got, err := c.SMembers(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	n, err = c.SRem(ctx, "t", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClient_ZIncrBy(t *testing.T) {
	ctx := context.Background()
	c := newTestStore(t, NewMemory()).Client("stats")

	score, err := c.ZIncrBy(ctx, "hits", 1, "home")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	score, err = c.ZIncrBy(ctx, "hits", 2.5, "home")
	require.NoError(t, err)
	assert.Equal(t, 3.5, score)
}

func TestClient_Expire(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c := newTestStore(t, m).Client("")

	ok, err := c.Expire(ctx, "missing", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	ok, err = c.Expire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := m.TTL(ctx, "config:k")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestClient_Set_WithTTL(t *testing.T) {
	ctx := context.Background()
	c := newTestStore(t, NewMemory()).Client("")

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_BypassesTree(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := newTestStore(t, m)

	require.NoError(t, s.Client("").Set(ctx, "raw", []byte(`"v"`), 0))

	// raw keys are not registered in any children-set
	assert.Empty(t, members(t, m, "config:keys"))
	assert.Equal(t, "v", s.Get(ctx, "raw"))
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	b := newFlakyBackend()
	logger := &mockLogger{}
	c := newTestStore(t, b, WithLogger(logger), WithLogTag("[client]")).Client("ns")

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, logger.getMessages(), "missing keys are not logged")

	b.fail("get", "set", "del", "smembers", "sadd", "srem")

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, errMockBackend)
	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), 0), errMockBackend)
	_, err = c.Del(ctx, "k")
	assert.ErrorIs(t, err, errMockBackend)
	_, err = c.SMembers(ctx, "s")
	assert.ErrorIs(t, err, errMockBackend)
	_, err = c.SAdd(ctx, "s", "a")
	assert.ErrorIs(t, err, errMockBackend)
	_, err = c.SRem(ctx, "s", "a")
	assert.ErrorIs(t, err, errMockBackend)

	for _, msg := range []string{
		"[client] Get config:ns:k failed",
		"[client] Set config:ns:k failed",
		"[client] Del failed",
		"[client] SMembers config:ns:s failed",
		"[client] SAdd config:ns:s failed",
		"[client] SRem config:ns:s failed",
	} {
		assert.True(t, logger.contains(msg), msg)
	}
}

func TestClient_TypeMismatch(t *testing.T) {
	ctx := context.Background()
	c := newTestStore(t, NewMemory()).Client("")

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, err := c.ZIncrBy(ctx, "k", 1, "m")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = c.SAdd(ctx, "k", "m")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}
