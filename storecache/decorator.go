package storecache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/hanlinkhaing/accountd/cache"
	"github.com/hanlinkhaing/accountd/codec"
	"github.com/hanlinkhaing/accountd/store"
)

// Interface assertion to ensure CachedCollection implements store.Collection[T].
var _ store.Collection[any] = (*CachedCollection[any])(nil)

// CachedCollection decorates a base collection with query-result caching.
//
// Reads issued with a caching directive on the context consult the cache
// namespace named after the collection before touching the store; every
// mutation drops that namespace. The store remains the source of truth: any
// cache failure degrades to a direct store call and is logged, never
// propagated.
type CachedCollection[T any] struct {
	base   store.Collection[T]
	cache  cache.QueryCache
	keys   cache.KeySerializer
	codec  codec.Codec
	logger cache.Logger
	group  singleflight.Group
}

// Option customizes a CachedCollection.
type Option[T any] func(*CachedCollection[T])

// WithCodec overrides the value codec (JSON by default).
func WithCodec[T any](c codec.Codec) Option[T] {
	return func(cc *CachedCollection[T]) { cc.codec = c }
}

// WithLogger sets the logger for degraded-mode events.
func WithLogger[T any](l cache.Logger) Option[T] {
	return func(cc *CachedCollection[T]) { cc.logger = l }
}

// New wraps base with the caching policy.
func New[T any](base store.Collection[T], qc cache.QueryCache, keys cache.KeySerializer, opts ...Option[T]) *CachedCollection[T] {
	cc := &CachedCollection[T]{
		base:   base,
		cache:  qc,
		keys:   keys,
		codec:  codec.JSON{},
		logger: cache.NopLogger{},
	}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

func (c *CachedCollection[T]) Name() string { return c.base.Name() }

// Find retrieves the documents matching the query. With a caching directive
// on the context the result is served from or stored to the cache as an
// ordered sequence.
func (c *CachedCollection[T]) Find(ctx context.Context, q store.Query) ([]T, error) {
	d, ok := DirectiveFrom(ctx)
	if !ok {
		return c.base.Find(ctx, q)
	}

	key := c.keys.SerializeKey(c.base.Name(), string(store.OpFind), q)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if payload, hit := c.lookup(ctx, key); hit {
			var out []T
			if err := c.codec.Unmarshal(payload, &out); err == nil {
				return out, nil
			}
			c.logger.Warn("cache entry undecodable, falling back to store", cache.Fields{
				"collection": c.base.Name(), "key": key,
			})
		}

		out, err := c.base.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		c.storeResult(ctx, key, d, out)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

// FindByID retrieves a single document by identifier.
func (c *CachedCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	return c.cachedOne(ctx, store.OpFindByID, id, func(ctx context.Context) (T, error) {
		return c.base.FindByID(ctx, id)
	})
}

// FindOne retrieves the first document matching the query.
func (c *CachedCollection[T]) FindOne(ctx context.Context, q store.Query) (T, error) {
	return c.cachedOne(ctx, store.OpFindOne, q, func(ctx context.Context) (T, error) {
		return c.base.FindOne(ctx, q)
	})
}

// cachedOne is the shared single-document read path.
func (c *CachedCollection[T]) cachedOne(ctx context.Context, op store.Op, query any, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	d, ok := DirectiveFrom(ctx)
	if !ok {
		return fetch(ctx)
	}

	key := c.keys.SerializeKey(c.base.Name(), string(op), query)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if payload, hit := c.lookup(ctx, key); hit {
			var out T
			if err := c.codec.Unmarshal(payload, &out); err == nil {
				return out, nil
			}
			c.logger.Warn("cache entry undecodable, falling back to store", cache.Fields{
				"collection": c.base.Name(), "key": key,
			})
		}

		out, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.storeResult(ctx, key, d, out)
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Insert creates a document and invalidates the collection's namespace.
func (c *CachedCollection[T]) Insert(ctx context.Context, doc T) (T, error) {
	res, err := c.base.Insert(ctx, doc)
	c.invalidate(ctx)
	return res, err
}

// Update patches every matching document and invalidates the collection's
// namespace.
func (c *CachedCollection[T]) Update(ctx context.Context, q store.Query, patch map[string]any) (int64, error) {
	n, err := c.base.Update(ctx, q, patch)
	c.invalidate(ctx)
	return n, err
}

// UpdateOne patches the first matching document and invalidates the
// collection's namespace.
func (c *CachedCollection[T]) UpdateOne(ctx context.Context, q store.Query, patch map[string]any) (T, error) {
	res, err := c.base.UpdateOne(ctx, q, patch)
	c.invalidate(ctx)
	return res, err
}

// Delete removes the matching documents and invalidates the collection's
// namespace.
func (c *CachedCollection[T]) Delete(ctx context.Context, q store.Query) (int64, error) {
	n, err := c.base.Delete(ctx, q)
	c.invalidate(ctx)
	return n, err
}

// lookup consults the cache, treating every backend failure as a miss.
func (c *CachedCollection[T]) lookup(ctx context.Context, key string) ([]byte, bool) {
	payload, hit, err := c.cache.HashGet(ctx, c.base.Name(), key)
	if err != nil {
		c.logger.Warn("cache lookup failed, falling back to store", cache.Fields{
			"collection": c.base.Name(), "key": key, "error": err.Error(),
		})
		return nil, false
	}
	return payload, hit
}

// storeResult writes a fresh result to the cache. Failures are logged and
// otherwise ignored; the caller already holds the authoritative result.
func (c *CachedCollection[T]) storeResult(ctx context.Context, key string, d Directive, result any) {
	payload, err := c.codec.Marshal(result)
	if err != nil {
		c.logger.Warn("cache encode failed", cache.Fields{
			"collection": c.base.Name(), "key": key, "error": err.Error(),
		})
		return
	}
	if err := c.cache.HashSet(ctx, c.base.Name(), key, payload, d.TTL); err != nil {
		c.logger.Warn("cache store failed", cache.Fields{
			"collection": c.base.Name(), "key": key, "error": err.Error(),
		})
	}
}

// invalidate drops the collection's whole namespace. Per-key invalidation
// cannot know which cached queries a mutation affects.
func (c *CachedCollection[T]) invalidate(ctx context.Context) {
	exists, err := c.cache.Exists(ctx, c.base.Name())
	if err != nil {
		c.logger.Warn("cache existence check failed during invalidation", cache.Fields{
			"collection": c.base.Name(), "error": err.Error(),
		})
		// Try the delete anyway; a stale namespace is worse than a spare DEL.
		exists = true
	}
	if !exists {
		return
	}
	if err := c.cache.DeleteNamespace(ctx, c.base.Name()); err != nil {
		c.logger.Error("cache invalidation failed", cache.Fields{
			"collection": c.base.Name(), "error": err.Error(),
		})
	}
}
