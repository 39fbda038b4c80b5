// Package sequence provides named monotonic counters used to assign unique
// integer identifiers to newly created documents.
//
// Atomicity is delegated entirely to the backing store: every allocation is a
// single atomic read-modify-write (a Mongo findOneAndUpdate with $inc, or a
// mutex-guarded increment in the memory store). The allocator adds no locking
// of its own, so allocations for one entity are linearizable across every
// process sharing the store.
package sequence

import (
	"context"
	"errors"
	"fmt"
)

// ErrSequenceNotFound is returned by Next when the entity was never seeded.
// Callers must treat it as fatal to the enclosing create operation; silently
// defaulting the identifier would break its uniqueness.
var ErrSequenceNotFound = errors.New("sequence: no counter for entity")

// Sequence is one named counter. Seq holds the last allocated value.
type Sequence struct {
	Entity string `bson:"entity" json:"entity"`
	Seq    int64  `bson:"seq" json:"seq"`
}

// Store is the minimal backend contract the allocator needs. Both operations
// must be atomic with respect to concurrent callers.
type Store interface {
	// FindOneOrCreate returns the sequence for entity, creating it with
	// initial as the starting value when absent. Concurrent first use must
	// not produce duplicate rows.
	FindOneOrCreate(ctx context.Context, entity string, initial int64) (Sequence, error)

	// IncrementAndGet atomically adds 1 to the counter and returns the new
	// value, or ErrSequenceNotFound when the entity was never seeded.
	IncrementAndGet(ctx context.Context, entity string) (int64, error)
}

// Allocator hands out strictly increasing identifiers per entity name.
type Allocator struct {
	store Store
}

// NewAllocator creates an allocator over the given store.
func NewAllocator(store Store) *Allocator {
	return &Allocator{store: store}
}

// FindOneOrCreate seeds the counter for entity at initial when it does not
// exist yet, and returns the current row either way. Idempotent: re-seeding
// an existing entity never resets its value.
func (a *Allocator) FindOneOrCreate(ctx context.Context, entity string, initial int64) (Sequence, error) {
	seq, err := a.store.FindOneOrCreate(ctx, entity, initial)
	if err != nil {
		return Sequence{}, fmt.Errorf("seed sequence %q: %w", entity, err)
	}
	return seq, nil
}

// Next allocates the next value for entity. Each call returns a value
// strictly greater than every prior allocation for the same entity, with no
// duplicates under concurrency.
func (a *Allocator) Next(ctx context.Context, entity string) (int64, error) {
	n, err := a.store.IncrementAndGet(ctx, entity)
	if err != nil {
		if errors.Is(err, ErrSequenceNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("allocate %q: %w", entity, err)
	}
	return n, nil
}

// Seed ensures each named entity has a counter starting at zero. Used at
// service startup; safe to run on every boot.
func (a *Allocator) Seed(ctx context.Context, entities ...string) error {
	for _, entity := range entities {
		if _, err := a.FindOneOrCreate(ctx, entity, 0); err != nil {
			return err
		}
	}
	return nil
}
