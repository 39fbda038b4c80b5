// Package storecache intercepts document-store calls to transparently serve
// and populate a query-result cache.
//
// # Design
//
// CachedCollection wraps any store.Collection and applies one policy:
//
//   - The three read kinds (find, findById, findOne) consult the cache, but
//     only when the caller opted in for that call by attaching a caching
//     directive to the context (Cacheable or CacheFor). The cache key is a
//     deterministic serialization of the collection name, the operation kind
//     and the query options.
//   - Every mutation (insert, update, delete) drops the collection's entire
//     cache namespace. Invalidation is coarse and immediate, never
//     TTL-dependent.
//
// Caching is an explicit, per-call parameter rather than hidden global state:
//
//	ctx = storecache.CacheFor(ctx, 10*time.Minute)
//	customer, err := customers.FindOne(ctx, store.Where("user", username))
//
// # Failure Semantics
//
// The underlying store is always the source of truth. A cache backend error
// on the read path is treated as a miss; on the write path the invalidation
// failure is logged and the store result is returned unchanged. Cache
// problems degrade performance, never correctness.
//
// # Concurrency
//
// Concurrent identical misses are collapsed with singleflight, so one store
// query feeds all waiters. Entries for the same key are idempotent
// reproductions of the same query, so no further coordination is needed;
// concurrent writers to different keys never interact.
package storecache
