// Package cache provides the cache backend contract and key serialization
// used by the query-result caching layer.
//
// # Overview
//
// Two interfaces live here:
//
//   - QueryCache: a namespaced key-value backend. The namespace is a
//     collection name; entries under it are serialized query results.
//   - KeySerializer: builds deterministic cache keys from a collection name,
//     an operation kind and the call's query options.
//
// Concrete backends are constructed through NewMemoryQueryCache (in-process,
// sturdyc) and NewRedisQueryCache (one Redis hash per collection).
//
// # Key Serialization Strategy
//
// The default serializer walks the query with reflection:
//
//   - Basic types: direct string representation
//   - Slices/arrays: recursive serialization of elements
//   - Maps: key-value pairs sorted by serialized key, so two maps that differ
//     only in insertion order produce the same cache key
//   - Structs: exported fields in declaration order
//   - Anything else: JSON fallback
//
// Determinism matters more than compactness here: an unstable key never
// causes a wrong result, but it grows the namespace with duplicate entries
// for the same logical query until invalidation clears them.
//
// # Namespaces and Invalidation
//
// The caching layer invalidates at namespace granularity: any mutation
// against a collection drops the whole namespace. QueryCache therefore needs
// no per-key delete; see the storecache package for the policy.
package cache
