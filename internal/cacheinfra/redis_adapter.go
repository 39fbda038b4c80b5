package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements cache.QueryCache on a Redis hash per namespace: the
// hash key is the collection name and each cached query is a field. Redis
// cannot expire individual hash fields, so entries carry their deadline in
// the envelope and are filtered (and deleted) on read. The hash key's own
// expiry is bumped to the largest entry TTL seen so abandoned namespaces
// still drain.
type RedisCache struct {
	rdb         redis.UniversalClient
	closeClient bool
	now         func() time.Time
}

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	// Client is the redis client to use. Required.
	Client redis.UniversalClient

	// CloseClient makes Close also close the underlying client. Set it only
	// when this backend exclusively owns the client.
	CloseClient bool
}

// ErrNilRedisClient is returned when no client is supplied.
var ErrNilRedisClient = errors.New("cacheinfra: nil redis client")

// NewRedisCache creates the Redis backend.
func NewRedisCache(opts RedisOptions) (*RedisCache, error) {
	if opts.Client == nil {
		return nil, ErrNilRedisClient
	}
	return &RedisCache{rdb: opts.Client, closeClient: opts.CloseClient, now: time.Now}, nil
}

// HashGet returns the entry stored under namespace/key. Expired and corrupt
// entries are removed from the hash and reported as misses.
func (r *RedisCache) HashGet(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	raw, err := r.rdb.HGet(ctx, namespace, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis HGET %q: %w", namespace, err)
	}

	deadline, payload, err := decodeEntry(raw)
	if err != nil || expired(deadline, r.now()) {
		r.rdb.HDel(ctx, namespace, key)
		return nil, false, nil
	}
	return payload, true, nil
}

// HashSet stores value under namespace/key with the given TTL.
func (r *RedisCache) HashSet(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	var deadline time.Time
	if ttl > 0 {
		deadline = r.now().Add(ttl)
	}

	if err := r.rdb.HSet(ctx, namespace, key, encodeEntry(deadline, value)).Err(); err != nil {
		return fmt.Errorf("redis HSET %q: %w", namespace, err)
	}

	// Only extend the hash expiry, never shorten it: a short-TTL entry must
	// not cut the life of longer-lived siblings.
	if ttl > 0 {
		if err := r.rdb.ExpireGT(ctx, namespace, ttl).Err(); err != nil {
			return fmt.Errorf("redis EXPIRE %q: %w", namespace, err)
		}
	}
	return nil
}

// Exists reports whether the namespace hash exists.
func (r *RedisCache) Exists(ctx context.Context, namespace string) (bool, error) {
	n, err := r.rdb.Exists(ctx, namespace).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXISTS %q: %w", namespace, err)
	}
	return n > 0, nil
}

// DeleteNamespace drops the namespace hash and every field under it.
func (r *RedisCache) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := r.rdb.Del(ctx, namespace).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis DEL %q: %w", namespace, err)
	}
	return nil
}

// Close releases the underlying client only when this backend owns it.
func (r *RedisCache) Close() error {
	if r.closeClient {
		if err := r.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			return err
		}
	}
	return nil
}
