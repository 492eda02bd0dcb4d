// Package storage provides the slot tables that back per-type column stores.
//
// A slot is addressed by an entity's (index, generation) pair. A lookup whose generation
// does not match the stored one misses, so stale handles never observe a newer value.
package storage

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Strategy selects how a column lays out its slots.
type Strategy uint8

const (
	// Dense keeps one slot per entity index. Best for components most entities carry.
	Dense Strategy = iota
	// Sparse keeps slots in a map keyed by index. Best for rarely attached components.
	Sparse
)

// Name returns a short label for the strategy.
func (s Strategy) Name() string {
	switch s {
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// ParseStrategy resolves a strategy from its name.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "dense":
		return Dense, nil
	case "sparse":
		return Sparse, nil
	default:
		return Dense, eris.Errorf("storage: unknown strategy %q", name)
	}
}

// Slots maps entity slots to values of type V.
type Slots[V any] interface {
	Strategy() Strategy
	Len() int
	Get(index, generation uint32) (V, bool)
	// At returns whatever occupies the index, whatever its generation.
	At(index uint32) (generation uint32, v V, ok bool)
	// Set stores v, replacing whatever occupied the index, including an older generation.
	Set(index, generation uint32, v V)
	Remove(index, generation uint32) (V, bool)
	Clear()
	// Range visits occupied slots in ascending index order until fn returns false.
	Range(fn func(index, generation uint32, v V) bool)
}

// New constructs an empty slot table for the strategy.
func New[V any](s Strategy) Slots[V] {
	if s == Sparse {
		return NewSparse[V]()
	}
	return NewDense[V]()
}
