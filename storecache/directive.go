package storecache

import (
	"context"
	"time"
)

// DefaultTTL is the entry lifetime used when a read is marked cacheable
// without an explicit TTL: two days.
const DefaultTTL = 172800 * time.Second

// Directive marks a single read call as cacheable. It is an immutable value
// scoped to one call; it is never persisted and never mutated in place.
type Directive struct {
	Enabled bool
	TTL     time.Duration
}

type directiveContextKey struct{}

// Cacheable marks reads issued with the returned context as cacheable with
// the default TTL.
func Cacheable(ctx context.Context) context.Context {
	return CacheFor(ctx, DefaultTTL)
}

// CacheFor marks reads issued with the returned context as cacheable with the
// given TTL. Non-positive TTLs fall back to the default.
func CacheFor(ctx context.Context, ttl time.Duration) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return context.WithValue(ctx, directiveContextKey{}, Directive{Enabled: true, TTL: ttl})
}

// DirectiveFrom extracts the caching directive attached to the context, if
// any.
func DirectiveFrom(ctx context.Context) (Directive, bool) {
	if ctx == nil {
		return Directive{}, false
	}
	d, ok := ctx.Value(directiveContextKey{}).(Directive)
	return d, ok && d.Enabled
}
