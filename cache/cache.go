package cache

import (
	"context"
	"time"
)

// QueryCache is the backend contract for cached query results. Entries are
// grouped under a namespace (the collection name) so that a mutation against
// a collection can drop every cached query for it in one call.
type QueryCache interface {
	// HashGet returns the value stored under key in the namespace.
	// The second return value reports whether the entry was present;
	// a miss is not an error.
	HashGet(ctx context.Context, namespace, key string) ([]byte, bool, error)

	// HashSet stores value under key in the namespace with the given TTL.
	HashSet(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error

	// Exists reports whether the namespace holds any entries.
	Exists(ctx context.Context, namespace string) (bool, error)

	// DeleteNamespace drops the namespace and every entry under it.
	DeleteNamespace(ctx context.Context, namespace string) error
}

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger so library packages stay decoupled from any
// particular logging stack. Wire an adapter around your logger of choice;
// NopLogger disables logging entirely.
type Logger interface {
	Debug(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger discards all log output.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
