package storage

// DenseSlots stores values in a slice indexed by entity index.
type DenseSlots[V any] struct {
	slots []denseSlot[V]
	count int
}

type denseSlot[V any] struct {
	generation uint32
	value      V
	occupied   bool
}

// NewDense constructs an empty dense slot table.
func NewDense[V any]() *DenseSlots[V] {
	return &DenseSlots[V]{}
}

func (s *DenseSlots[V]) Strategy() Strategy {
	return Dense
}

func (s *DenseSlots[V]) Len() int {
	return s.count
}

func (s *DenseSlots[V]) Get(index, generation uint32) (V, bool) {
	if int(index) >= len(s.slots) {
		var zero V
		return zero, false
	}
	slot := s.slots[index]
	if !slot.occupied || slot.generation != generation {
		var zero V
		return zero, false
	}
	return slot.value, true
}

func (s *DenseSlots[V]) At(index uint32) (uint32, V, bool) {
	if int(index) >= len(s.slots) || !s.slots[index].occupied {
		var zero V
		return 0, zero, false
	}
	slot := s.slots[index]
	return slot.generation, slot.value, true
}

func (s *DenseSlots[V]) Set(index, generation uint32, v V) {
	s.ensureCapacity(int(index) + 1)
	slot := &s.slots[index]
	if !slot.occupied {
		s.count++
	}
	slot.occupied = true
	slot.generation = generation
	slot.value = v
}

func (s *DenseSlots[V]) Remove(index, generation uint32) (V, bool) {
	v, ok := s.Get(index, generation)
	if !ok {
		return v, false
	}
	s.slots[index] = denseSlot[V]{}
	s.count--
	return v, true
}

func (s *DenseSlots[V]) Clear() {
	clear(s.slots)
	s.count = 0
}

func (s *DenseSlots[V]) Range(fn func(index, generation uint32, v V) bool) {
	for idx, slot := range s.slots {
		if !slot.occupied {
			continue
		}
		if !fn(uint32(idx), slot.generation, slot.value) {
			return
		}
	}
}

func (s *DenseSlots[V]) ensureCapacity(size int) {
	if size <= len(s.slots) {
		return
	}
	diff := size - len(s.slots)
	s.slots = append(s.slots, make([]denseSlot[V], diff)...)
}

var _ Slots[int] = (*DenseSlots[int])(nil)
