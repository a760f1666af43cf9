package treestore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("treestore: not found")
	ErrTypeMismatch = errors.New("treestore: type mismatch")
	ErrValidation   = errors.New("treestore: validation failed")
	ErrTooDeep      = errors.New("treestore: value nested too deeply")
)

// Backend describes the flat key/value primitives the tree is encoded into.
// It mirrors the subset of Redis commands the store relies on.
// Implementations must be thread-safe.
type Backend interface {
	// Get returns the raw value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value at key. A ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes keys and reports how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Set operations
	SMembers(ctx context.Context, key string) ([]string, error)
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SRem(ctx context.Context, key string, members ...string) (int64, error)

	// Sorted set counter
	ZIncrBy(ctx context.Context, key string, increment float64, member string) (float64, error)

	// Expire sets a TTL on an existing key. It reports false when the key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// BackendError reports a failed backend call.
type BackendError struct {
	Op  string
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("treestore: backend %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// DecodeError reports a stored literal that is not valid JSON.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("treestore: decode %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func backendErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Key: key, Err: err}
}
