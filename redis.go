package treestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Backend on a go-redis client. Connection pooling,
// retries and authentication are configured on the client itself.
type Redis struct {
	client redis.Cmdable
}

var _ Backend = (*Redis)(nil)

// NewRedis wraps client, which may be a *redis.Client, a cluster or ring
// client, or anything else implementing redis.Cmdable.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, redisErr(err)
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return redisErr(r.client.Set(ctx, key, value, ttl).Err())
}

func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.client.Del(ctx, keys...).Result()
	return n, redisErr(err)
}

func (r *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	return members, redisErr(err)
}

func (r *Redis) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	n, err := r.client.SAdd(ctx, key, toArgs(members)...).Result()
	return n, redisErr(err)
}

func (r *Redis) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	n, err := r.client.SRem(ctx, key, toArgs(members)...).Result()
	return n, redisErr(err)
}

func (r *Redis) ZIncrBy(ctx context.Context, key string, increment float64, member string) (float64, error) {
	score, err := r.client.ZIncrBy(ctx, key, increment, member).Result()
	return score, redisErr(err)
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.Expire(ctx, key, ttl).Result()
	return ok, redisErr(err)
}

// redisErr maps WRONGTYPE replies onto ErrTypeMismatch.
func redisErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "WRONGTYPE") {
		return errors.Join(ErrTypeMismatch, err)
	}
	return err
}

func toArgs(members []string) []interface{} {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return args
}
