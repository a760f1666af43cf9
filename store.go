package treestore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultNamespace prefixes backend keys unless WithNamespace says otherwise.
	DefaultNamespace = "config"
	// DefaultTTL is the freshness window of cached values.
	DefaultTTL = time.Hour
)

// Option customizes Store behavior.
type Option func(*Store)

// WithNamespace sets the namespace prefix. An empty namespace disables prefixing.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		s.namespace = ns
	}
}

// WithTTL sets how long a fetched value is trusted without going back to
// the backend. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger specifies a logger for operation logging.
// If not provided, a no-op logger is used (no logging).
func WithLogger(logger Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLogTag sets a tag prefix for all log messages.
// Useful for identifying the source of logs in multi-store scenarios.
func WithLogTag(tag string) Option {
	return func(s *Store) {
		s.logTag = tag
	}
}

// WithClock replaces time.Now for cache freshness checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxDepth bounds the nesting depth accepted by writes.
func WithMaxDepth(depth int) Option {
	return func(s *Store) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// Store is a hierarchical configuration tree encoded into a flat Backend.
//
// Objects are stored as one literal per leaf plus a children-set per
// branch, so "app:db:host" = "x" becomes
//
//	config:keys        => {app}
//	config:app:keys    => {db}
//	config:app:db:keys => {host}
//	config:app:db:host => "\"x\""
//
// Reads are answered from a write-through cache while the entry is younger
// than the TTL. Multi-key operations are not atomic.
type Store struct {
	backend   Backend
	namespace string
	ttl       time.Duration
	maxDepth  int
	cache     *Cache
	now       func() time.Time
	logger    Logger
	logTag    string
}

// New creates a Store over backend.
func New(backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("treestore: nil backend")
	}
	s := &Store{
		backend:   backend,
		namespace: DefaultNamespace,
		ttl:       DefaultTTL,
		maxDepth:  DefaultMaxDepth,
		now:       time.Now,
		logger:    defaultLogger, // Default to no-op
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = NewCache(s.now)
	return s, nil
}

// Namespace returns the prefix applied to every backend key.
func (s *Store) Namespace() string { return s.namespace }

// TTL returns the cache freshness window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Cache exposes the store's cache.
func (s *Store) Cache() *Cache { return s.cache }

// Backend returns the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// key builds the backend key for segments.
func (s *Store) key(segments ...string) string {
	return BackendKey(s.namespace, segments...)
}

func (s *Store) childrenKey(segments ...string) string {
	return ChildrenKey(s.namespace, segments...)
}

func (s *Store) logf(level string, ctx context.Context, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if s.logTag != "" {
		msg = s.logTag + " " + msg
	}
	switch level {
	case "info":
		s.logger.Info(ctx, "%s", msg)
	case "warn":
		s.logger.Warn(ctx, "%s", msg)
	case "error":
		s.logger.Error(ctx, "%s", msg)
	case "debug":
		s.logger.Debug(ctx, "%s", msg)
	}
}

// fail wraps, logs and counts a backend failure.
func (s *Store) fail(ctx context.Context, op, key string, err error) error {
	if err == nil {
		return nil
	}
	countBackendError(ctx, s.namespace, op)
	s.logf("error", ctx, "%s %s failed: %v", op, key, err)
	return backendErr(op, key, err)
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool, error) {
	s.logf("debug", ctx, "get %s", key)
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.fail(ctx, "get", key, err)
	}
	return data, true, nil
}

func (s *Store) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.logf("debug", ctx, "set %s", key)
	return s.fail(ctx, "set", key, s.backend.Set(ctx, key, value, ttl))
}

func (s *Store) del(ctx context.Context, key string) (int64, error) {
	s.logf("debug", ctx, "del %s", key)
	n, err := s.backend.Del(ctx, key)
	return n, s.fail(ctx, "del", key, err)
}

func (s *Store) smembers(ctx context.Context, key string) ([]string, error) {
	s.logf("debug", ctx, "smembers %s", key)
	members, err := s.backend.SMembers(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return members, s.fail(ctx, "smembers", key, err)
}

func (s *Store) sadd(ctx context.Context, key, member string) error {
	s.logf("debug", ctx, "sadd %s %s", key, member)
	_, err := s.backend.SAdd(ctx, key, member)
	return s.fail(ctx, "sadd", key, err)
}

func (s *Store) srem(ctx context.Context, key, member string) error {
	s.logf("debug", ctx, "srem %s %s", key, member)
	_, err := s.backend.SRem(ctx, key, member)
	return s.fail(ctx, "srem", key, err)
}
