package storage

import (
	"maps"
	"slices"
)

// SparseSlots stores values in a map keyed by entity index. Memory stays proportional to
// the number of occupied slots rather than to the highest index.
type SparseSlots[V any] struct {
	slots map[uint32]sparseSlot[V]
}

type sparseSlot[V any] struct {
	generation uint32
	value      V
}

// NewSparse constructs an empty sparse slot table.
func NewSparse[V any]() *SparseSlots[V] {
	return &SparseSlots[V]{slots: make(map[uint32]sparseSlot[V])}
}

func (s *SparseSlots[V]) Strategy() Strategy {
	return Sparse
}

func (s *SparseSlots[V]) Len() int {
	return len(s.slots)
}

func (s *SparseSlots[V]) Get(index, generation uint32) (V, bool) {
	slot, ok := s.slots[index]
	if !ok || slot.generation != generation {
		var zero V
		return zero, false
	}
	return slot.value, true
}

func (s *SparseSlots[V]) At(index uint32) (uint32, V, bool) {
	slot, ok := s.slots[index]
	return slot.generation, slot.value, ok
}

func (s *SparseSlots[V]) Set(index, generation uint32, v V) {
	s.slots[index] = sparseSlot[V]{generation: generation, value: v}
}

func (s *SparseSlots[V]) Remove(index, generation uint32) (V, bool) {
	v, ok := s.Get(index, generation)
	if !ok {
		return v, false
	}
	delete(s.slots, index)
	return v, true
}

func (s *SparseSlots[V]) Clear() {
	clear(s.slots)
}

// Range sorts indices first so traversal order matches DenseSlots.
func (s *SparseSlots[V]) Range(fn func(index, generation uint32, v V) bool) {
	for _, idx := range slices.Sorted(maps.Keys(s.slots)) {
		slot := s.slots[idx]
		if !fn(idx, slot.generation, slot.value) {
			return
		}
	}
}

var _ Slots[int] = (*SparseSlots[int])(nil)
