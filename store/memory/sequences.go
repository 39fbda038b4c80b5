package memory

import (
	"context"
	"sync"

	"github.com/hanlinkhaing/accountd/sequence"
)

// Sequences implements sequence.Store with a mutex-guarded map. The lock
// makes every increment a single atomic read-modify-write, matching what the
// production adapter gets from findOneAndUpdate.
type Sequences struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewSequences creates an empty sequence store.
func NewSequences() *Sequences {
	return &Sequences{counters: make(map[string]int64)}
}

func (s *Sequences) FindOneOrCreate(_ context.Context, entity string, initial int64) (sequence.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.counters[entity]; ok {
		return sequence.Sequence{Entity: entity, Seq: current}, nil
	}
	s.counters[entity] = initial
	return sequence.Sequence{Entity: entity, Seq: initial}, nil
}

func (s *Sequences) IncrementAndGet(_ context.Context, entity string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.counters[entity]
	if !ok {
		return 0, sequence.ErrSequenceNotFound
	}
	next := current + 1
	s.counters[entity] = next
	return next, nil
}
