// Package cacheinfra holds the concrete cache backends behind the public
// cache.QueryCache contract: an in-process sturdyc adapter and a Redis hash
// adapter. Both store values inside an envelope that carries the per-entry
// deadline, since neither backend can expire a single namespace entry on its
// own.
package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the settings for the in-process sturdyc backend.
type Config struct {
	// Capacity is the maximum number of entries across all namespaces.
	// Must be greater than 0.
	Capacity int

	// NumShards controls sturdyc's internal sharding. Higher values improve
	// concurrency at a small memory cost. Must be greater than 0.
	NumShards int

	// TTL is the backend-level upper bound on entry lifetime. Per-entry
	// deadlines shorter than this are enforced via the envelope.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when the cache is
	// full. Must be between 1 and 100.
	EvictionPercentage int

	// EvictionInterval overrides how often expired entries are collected.
	// Zero keeps sturdyc's default.
	EvictionInterval time.Duration
}

// DefaultConfig returns settings suitable for a single service instance
// caching document query results. The TTL matches the default caching
// directive of two days.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                48 * time.Hour,
		EvictionPercentage: 10,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// nsSeparator joins namespace and entry key into a single sturdyc key. The
// unit separator cannot appear in collection names, so prefix scans never
// match a sibling namespace that shares a name prefix.
const nsSeparator = "\x1f"

// MemoryCache implements cache.QueryCache on top of a sturdyc client.
// Namespaces are flattened into composite keys; dropping a namespace scans
// the key space and deletes by prefix.
type MemoryCache struct {
	client *sturdyc.Client[[]byte]
	now    func() time.Time
}

// NewMemoryCache creates the in-process backend.
func NewMemoryCache(cfg Config) (*MemoryCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		opts = append(opts, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		opts...,
	)

	return &MemoryCache{client: client, now: time.Now}, nil
}

func (m *MemoryCache) compositeKey(namespace, key string) string {
	return namespace + nsSeparator + key
}

// HashGet returns the entry stored under namespace/key. Expired and corrupt
// entries are dropped and reported as misses.
func (m *MemoryCache) HashGet(_ context.Context, namespace, key string) ([]byte, bool, error) {
	composite := m.compositeKey(namespace, key)
	raw, ok := m.client.Get(composite)
	if !ok {
		return nil, false, nil
	}

	deadline, payload, err := decodeEntry(raw)
	if err != nil || expired(deadline, m.now()) {
		m.client.Delete(composite)
		return nil, false, nil
	}
	return payload, true, nil
}

// HashSet stores value under namespace/key with the given TTL.
func (m *MemoryCache) HashSet(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	var deadline time.Time
	if ttl > 0 {
		deadline = m.now().Add(ttl)
	}
	m.client.Set(m.compositeKey(namespace, key), encodeEntry(deadline, value))
	return nil
}

// Exists reports whether any entry lives under the namespace.
func (m *MemoryCache) Exists(_ context.Context, namespace string) (bool, error) {
	prefix := namespace + nsSeparator
	for _, key := range m.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			return true, nil
		}
	}
	return false, nil
}

// DeleteNamespace drops every entry under the namespace.
func (m *MemoryCache) DeleteNamespace(_ context.Context, namespace string) error {
	prefix := namespace + nsSeparator
	for _, key := range m.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			m.client.Delete(key)
		}
	}
	return nil
}
