// Package memory implements the store contracts in process memory. It backs
// the test suites and serves as the DI default when no MongoDB is configured.
// Documents round-trip through their JSON wire form, so filter matching and
// patching behave like the production adapter.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/hanlinkhaing/accountd/store"
)

// idField is the wire name documents carry their identifier under.
const idField = "id"

// Store holds every in-memory collection, keyed by name. Collections of
// different document types share the same underlying data when they share a
// name, mirroring how a database names collections independently of the
// code's view of them.
type Store struct {
	collections *xsync.MapOf[string, *collectionData]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{collections: xsync.NewMapOf[string, *collectionData]()}
}

// collectionData is the raw document set of one collection. The mutex guards
// docs and order together; order preserves insertion sequence so FindOne and
// unsorted Find results are deterministic.
type collectionData struct {
	mu    sync.RWMutex
	docs  map[string]map[string]any
	order []string
}

func (s *Store) data(name string) *collectionData {
	data, _ := s.collections.LoadOrCompute(name, func() *collectionData {
		return &collectionData{docs: make(map[string]map[string]any)}
	})
	return data
}

// Collection returns a typed view over the named collection.
func Collection[T any](s *Store, name string) store.Collection[T] {
	return &collection[T]{name: name, data: s.data(name)}
}

type collection[T any] struct {
	name string
	data *collectionData
}

func (c *collection[T]) Name() string { return c.name }

// Reads hold the lock through decoding: matchLocked returns references to the
// live document maps, which mutations patch in place under the write lock.
func (c *collection[T]) Find(ctx context.Context, q store.Query) ([]T, error) {
	c.data.mu.RLock()
	defer c.data.mu.RUnlock()

	matches := c.matchLocked(q)
	sortDocs(matches, q.Sort)
	matches = window(matches, q.Skip, q.Limit)

	out := make([]T, 0, len(matches))
	for _, doc := range matches {
		v, err := fromDoc[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *collection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T

	c.data.mu.RLock()
	defer c.data.mu.RUnlock()

	doc, ok := c.data.docs[id]
	if !ok {
		return zero, store.ErrNotFound
	}
	return fromDoc[T](doc)
}

func (c *collection[T]) FindOne(ctx context.Context, q store.Query) (T, error) {
	var zero T

	c.data.mu.RLock()
	defer c.data.mu.RUnlock()

	matches := c.matchLocked(q)
	sortDocs(matches, q.Sort)
	if len(matches) == 0 {
		return zero, store.ErrNotFound
	}
	return fromDoc[T](matches[0])
}

func (c *collection[T]) Insert(ctx context.Context, v T) (T, error) {
	var zero T

	doc, err := toDoc(v)
	if err != nil {
		return zero, err
	}

	id, _ := doc[idField].(string)
	if id == "" {
		id = uuid.NewString()
		doc[idField] = id
	}

	c.data.mu.Lock()
	if _, exists := c.data.docs[id]; !exists {
		c.data.order = append(c.data.order, id)
	}
	c.data.docs[id] = doc
	c.data.mu.Unlock()

	return fromDoc[T](doc)
}

func (c *collection[T]) Update(ctx context.Context, q store.Query, patch map[string]any) (int64, error) {
	normalized, err := normalizePatch(patch)
	if err != nil {
		return 0, err
	}

	c.data.mu.Lock()
	defer c.data.mu.Unlock()

	matches := c.matchLocked(q)
	for _, doc := range matches {
		for k, v := range normalized {
			doc[k] = v
		}
	}
	return int64(len(matches)), nil
}

func (c *collection[T]) UpdateOne(ctx context.Context, q store.Query, patch map[string]any) (T, error) {
	var zero T

	normalized, err := normalizePatch(patch)
	if err != nil {
		return zero, err
	}

	c.data.mu.Lock()
	defer c.data.mu.Unlock()

	matches := c.matchLocked(q)
	sortDocs(matches, q.Sort)
	if len(matches) == 0 {
		return zero, store.ErrNotFound
	}

	doc := matches[0]
	for k, v := range normalized {
		doc[k] = v
	}
	return fromDoc[T](doc)
}

func (c *collection[T]) Delete(ctx context.Context, q store.Query) (int64, error) {
	c.data.mu.Lock()
	defer c.data.mu.Unlock()

	matches := c.matchLocked(q)
	for _, doc := range matches {
		id, _ := doc[idField].(string)
		delete(c.data.docs, id)
	}

	if len(matches) > 0 {
		kept := c.data.order[:0]
		for _, id := range c.data.order {
			if _, ok := c.data.docs[id]; ok {
				kept = append(kept, id)
			}
		}
		c.data.order = kept
	}
	return int64(len(matches)), nil
}

// matchLocked returns the documents matching the filter in insertion order.
// Callers hold at least a read lock.
func (c *collection[T]) matchLocked(q store.Query) []map[string]any {
	filter, err := normalizePatch(q.Filter)
	if err != nil {
		return nil
	}

	var matches []map[string]any
	for _, id := range c.data.order {
		doc, ok := c.data.docs[id]
		if !ok {
			continue
		}
		if matchesFilter(doc, filter) {
			matches = append(matches, doc)
		}
	}
	return matches
}

func matchesFilter(doc, filter map[string]any) bool {
	for field, want := range filter {
		if !reflect.DeepEqual(doc[field], want) {
			return false
		}
	}
	return true
}

// toDoc converts a typed document to its JSON wire form.
func toDoc[T any](v T) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("memory: encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("memory: decode document: %w", err)
	}
	return doc, nil
}

func fromDoc[T any](doc map[string]any) (T, error) {
	var v T
	raw, err := json.Marshal(doc)
	if err != nil {
		return v, fmt.Errorf("memory: encode document: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("memory: decode document: %w", err)
	}
	return v, nil
}

// normalizePatch runs filter/patch values through the same JSON round-trip
// documents go through, so numeric types compare equal regardless of the
// caller's Go type.
func normalizePatch(m map[string]any) (map[string]any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("memory: encode filter: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("memory: decode filter: %w", err)
	}
	return out, nil
}

// window applies skip and limit to an already sorted result set.
func window(docs []map[string]any, skip, limit int64) []map[string]any {
	if skip > 0 {
		if skip >= int64(len(docs)) {
			return nil
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}

func sortDocs(docs []map[string]any, fields []store.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			cmp := compareValues(docs[i][f.Field], docs[j][f.Field])
			if cmp == 0 {
				continue
			}
			if f.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case !av && bv:
				return -1
			case av && !bv:
				return 1
			}
			return 0
		}
	}
	return 0
}
