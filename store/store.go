// Package store defines the document-store contract the caching layer and
// the domain services are written against. Implementations live in
// store/memory and store/mongo.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("store: document not found")

// ErrDuplicateKey is returned by Insert when the document violates a unique
// index.
var ErrDuplicateKey = errors.New("store: duplicate key")

// Op classifies a data-access call. The caching layer treats the three read
// kinds as cacheable and everything else as invalidating.
type Op string

const (
	OpFind     Op = "find"
	OpFindByID Op = "findById"
	OpFindOne  Op = "findOne"
	OpInsert   Op = "insert"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
)

// IsRead reports whether the operation kind is one of the cacheable reads.
func (o Op) IsRead() bool {
	switch o {
	case OpFind, OpFindByID, OpFindOne:
		return true
	default:
		return false
	}
}

// Query describes a document query: an equality filter plus result-shaping
// options. Filter values are compared against the document's wire
// representation.
type Query struct {
	Filter map[string]any
	Sort   []SortField
	Limit  int64
	Skip   int64
}

// SortField orders results by a single field.
type SortField struct {
	Field string
	// Desc sorts descending when true.
	Desc bool
}

// Where builds a single-field equality query, the dominant shape in this
// service.
func Where(field string, value any) Query {
	return Query{Filter: map[string]any{field: value}}
}

// Collection is a named grouping of documents of one type.
//
// UpdateOne has find-one-and-update semantics: it applies the patch to the
// first match and returns the post-update document, or ErrNotFound. Update
// applies the patch to every match and reports how many documents matched,
// whether or not the patch changed their bytes; zero matches is not an error.
type Collection[T any] interface {
	Name() string

	Find(ctx context.Context, q Query) ([]T, error)
	FindByID(ctx context.Context, id string) (T, error)
	FindOne(ctx context.Context, q Query) (T, error)

	Insert(ctx context.Context, doc T) (T, error)
	Update(ctx context.Context, q Query, patch map[string]any) (int64, error)
	UpdateOne(ctx context.Context, q Query, patch map[string]any) (T, error)
	Delete(ctx context.Context, q Query) (int64, error)
}
