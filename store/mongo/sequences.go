package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hanlinkhaing/accountd/sequence"
)

// CountersCollection is the collection backing the sequence counters.
const CountersCollection = "counters"

// Sequences implements sequence.Store on a counters collection. Both
// operations are single findOneAndUpdate calls, which MongoDB serializes per
// document, giving the allocator its linearizability per entity name.
type Sequences struct {
	coll *mongo.Collection
}

// NewSequences creates the sequence store.
func NewSequences(s *Store) *Sequences {
	return &Sequences{coll: s.db.Collection(CountersCollection)}
}

// FindOneOrCreate looks up the counter by entity name, inserting it with the
// initial value when absent. The upsert keyed on the entity field is what
// prevents duplicate rows under concurrent first use.
func (s *Sequences) FindOneOrCreate(ctx context.Context, entity string, initial int64) (sequence.Sequence, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	update := bson.M{"$setOnInsert": bson.M{"entity": entity, "seq": initial}}

	var seq sequence.Sequence
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"entity": entity}, update, opts).Decode(&seq)
	if err != nil {
		return sequence.Sequence{}, fmt.Errorf("mongo seed counter %q: %w", entity, err)
	}
	return seq, nil
}

// IncrementAndGet atomically bumps the counter and returns the new value.
func (s *Sequences) IncrementAndGet(ctx context.Context, entity string) (int64, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var seq sequence.Sequence
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"entity": entity}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&seq)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, sequence.ErrSequenceNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("mongo increment counter %q: %w", entity, err)
	}
	return seq.Seq, nil
}
