// Package mongo adapts a MongoDB database to the store contracts. Atomic
// primitives the rest of the system relies on (counter increments, seed
// upserts) map directly onto findOneAndUpdate.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/google/uuid"
	"github.com/hanlinkhaing/accountd/store"
)

// Store wraps a mongo database handle.
type Store struct {
	db *mongo.Database
}

// NewStore creates a store over the given database.
func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Collection returns a typed view over the named collection.
func Collection[T any](s *Store, name string) store.Collection[T] {
	return &collection[T]{name: name, coll: s.db.Collection(name)}
}

// UniqueIndex names a single-field unique index.
type UniqueIndex struct {
	Collection string
	Field      string
}

// EnsureIndexes creates the given unique indexes. CreateOne is idempotent for
// an identical existing index, so this is safe to run on every boot. The
// indexes backstop check-then-insert flows: a concurrent duplicate insert
// fails with a duplicate-key error instead of writing a second document.
func (s *Store) EnsureIndexes(ctx context.Context, indexes ...UniqueIndex) error {
	for _, idx := range indexes {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: idx.Field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		if _, err := s.db.Collection(idx.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongo ensure index %s.%s: %w", idx.Collection, idx.Field, err)
		}
	}
	return nil
}

type collection[T any] struct {
	name string
	coll *mongo.Collection
}

func (c *collection[T]) Name() string { return c.name }

func (c *collection[T]) Find(ctx context.Context, q store.Query) ([]T, error) {
	opts := options.Find()
	if sort := sortSpec(q.Sort); sort != nil {
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}

	cursor, err := c.coll.Find(ctx, filterSpec(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find %q: %w", c.name, err)
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode %q: %w", c.name, err)
	}
	return out, nil
}

func (c *collection[T]) FindByID(ctx context.Context, id string) (T, error) {
	return c.findOne(ctx, bson.M{"_id": id}, nil)
}

func (c *collection[T]) FindOne(ctx context.Context, q store.Query) (T, error) {
	return c.findOne(ctx, filterSpec(q.Filter), sortSpec(q.Sort))
}

func (c *collection[T]) findOne(ctx context.Context, filter bson.M, sort bson.D) (T, error) {
	var zero T

	opts := options.FindOne()
	if sort != nil {
		opts.SetSort(sort)
	}

	var doc T
	err := c.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return zero, store.ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("mongo findOne %q: %w", c.name, err)
	}
	return doc, nil
}

func (c *collection[T]) Insert(ctx context.Context, v T) (T, error) {
	var zero T

	raw, err := bson.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("mongo encode %q: %w", c.name, err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return zero, fmt.Errorf("mongo decode %q: %w", c.name, err)
	}

	if id, _ := doc["_id"].(string); id == "" {
		doc["_id"] = uuid.NewString()
	}

	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return zero, fmt.Errorf("mongo insert %q: %w", c.name, store.ErrDuplicateKey)
		}
		return zero, fmt.Errorf("mongo insert %q: %w", c.name, err)
	}

	id, _ := doc["_id"].(string)
	return c.FindByID(ctx, id)
}

func (c *collection[T]) Update(ctx context.Context, q store.Query, patch map[string]any) (int64, error) {
	res, err := c.coll.UpdateMany(ctx, filterSpec(q.Filter), bson.M{"$set": patch})
	if err != nil {
		return 0, fmt.Errorf("mongo update %q: %w", c.name, err)
	}
	// MatchedCount, not ModifiedCount: a no-op patch still counts its matches,
	// same as the memory backend.
	return res.MatchedCount, nil
}

func (c *collection[T]) UpdateOne(ctx context.Context, q store.Query, patch map[string]any) (T, error) {
	var zero T

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if sort := sortSpec(q.Sort); sort != nil {
		opts.SetSort(sort)
	}

	var doc T
	err := c.coll.FindOneAndUpdate(ctx, filterSpec(q.Filter), bson.M{"$set": patch}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return zero, store.ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("mongo findOneAndUpdate %q: %w", c.name, err)
	}
	return doc, nil
}

func (c *collection[T]) Delete(ctx context.Context, q store.Query) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filterSpec(q.Filter))
	if err != nil {
		return 0, fmt.Errorf("mongo delete %q: %w", c.name, err)
	}
	return res.DeletedCount, nil
}

func filterSpec(filter map[string]any) bson.M {
	if len(filter) == 0 {
		return bson.M{}
	}
	spec := make(bson.M, len(filter))
	for k, v := range filter {
		spec[k] = v
	}
	return spec
}

func sortSpec(fields []store.SortField) bson.D {
	if len(fields) == 0 {
		return nil
	}
	spec := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		spec = append(spec, bson.E{Key: f.Field, Value: dir})
	}
	return spec
}
