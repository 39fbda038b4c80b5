package cache

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hanlinkhaing/accountd/internal/cacheinfra"
)

// Config exposes the in-process backend settings to consumers of the cache
// package without leaking the internal adapter types.
type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewMemoryQueryCache constructs the in-process QueryCache backend.
func NewMemoryQueryCache(cfg Config) (QueryCache, error) {
	return cacheinfra.NewMemoryCache(cfg.toInternal())
}

// NewRedisQueryCache constructs the Redis-backed QueryCache. The caller keeps
// ownership of the client.
func NewRedisQueryCache(client redis.UniversalClient) (QueryCache, error) {
	return cacheinfra.NewRedisCache(cacheinfra.RedisOptions{Client: client})
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
