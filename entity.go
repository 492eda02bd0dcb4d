package simstore

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/rotisserie/eris"
)

// EntityID identifies an entity and encodes a generation for stale-handle detection.
type EntityID struct {
	index      uint32
	generation uint32
}

// Index returns the backing index of the entity.
func (id EntityID) Index() uint32 {
	return id.index
}

// Generation returns the generation counter associated with the entity.
func (id EntityID) Generation() uint32 {
	return id.generation
}

// IsZero reports whether the identifier is the zero value.
func (id EntityID) IsZero() bool {
	return id.index == 0 && id.generation == 0
}

// String renders the entity identifier for debugging purposes.
func (id EntityID) String() string {
	return fmt.Sprintf("EntityID(%d:%d)", id.index, id.generation)
}

// EntityIDFromParts constructs an identifier from raw components.
func EntityIDFromParts(index, generation uint32) EntityID {
	return EntityID{index: index, generation: generation}
}

type entitySlot struct {
	generation uint32
	alive      bool
}

// EntityTable allocates entity identifiers and recycles their slots. Generations only
// ever move forward, so an identifier that has been despawned never matches again. A
// slot whose generation is exhausted is retired instead of wrapping back to 1.
type EntityTable struct {
	slots []entitySlot
	free  []uint32
	alive int
}

// NewEntityTable constructs an empty table.
func NewEntityTable() *EntityTable {
	return &EntityTable{}
}

// Spawn issues a new entity identifier, recycling slots when possible.
func (t *EntityTable) Spawn() EntityID {
	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		index = uint32(len(t.slots))
		t.slots = append(t.slots, entitySlot{})
	}

	slot := &t.slots[index]
	slot.generation++
	slot.alive = true
	t.alive++
	return EntityID{index: index, generation: slot.generation}
}

// Despawn releases the identifier, returning true when it was live.
func (t *EntityTable) Despawn(id EntityID) bool {
	if !t.Contains(id) {
		return false
	}
	t.release(id.index)
	return true
}

func (t *EntityTable) release(index uint32) {
	slot := &t.slots[index]
	slot.alive = false
	t.alive--
	if slot.generation == math.MaxUint32 {
		return
	}
	slot.generation++
	t.free = append(t.free, index)
}

// Contains reports whether the identifier refers to a currently allocated entity.
func (t *EntityTable) Contains(id EntityID) bool {
	if id.IsZero() || int(id.index) >= len(t.slots) {
		return false
	}
	slot := t.slots[id.index]
	return slot.alive && slot.generation == id.generation
}

// Len returns the number of live entities.
func (t *EntityTable) Len() int {
	return t.alive
}

// All yields live identifiers in slot order. The sequence can be ranged over repeatedly;
// spawning or despawning while a range is in progress is unsupported.
func (t *EntityTable) All() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		for i := 0; i < len(t.slots); i++ {
			slot := t.slots[i]
			if !slot.alive {
				continue
			}
			if !yield(EntityID{index: uint32(i), generation: slot.generation}) {
				return
			}
		}
	}
}

// Clear despawns every live entity. Slots stay allocated with advanced generations.
func (t *EntityTable) Clear() {
	for i := len(t.slots) - 1; i >= 0; i-- {
		if t.slots[i].alive {
			t.release(uint32(i))
		}
	}
}

// Clone returns an independent copy of the table.
func (t *EntityTable) Clone() *EntityTable {
	return &EntityTable{
		slots: slices.Clone(t.slots),
		free:  slices.Clone(t.free),
		alive: t.alive,
	}
}

// EntityTableSnapshot is the serializable form of an EntityTable.
type EntityTableSnapshot struct {
	Generations []uint32 `json:"generations"`
	Alive       []bool   `json:"alive"`
	Free        []uint32 `json:"free"`
}

// Snapshot captures the table, including free-list order, so a restored table hands out
// the same identifiers as the original.
func (t *EntityTable) Snapshot() EntityTableSnapshot {
	snap := EntityTableSnapshot{
		Generations: make([]uint32, len(t.slots)),
		Alive:       make([]bool, len(t.slots)),
		Free:        slices.Clone(t.free),
	}
	for i, slot := range t.slots {
		snap.Generations[i] = slot.generation
		snap.Alive[i] = slot.alive
	}
	return snap
}

// Restore replaces the table's contents with a snapshot.
func (t *EntityTable) Restore(snap EntityTableSnapshot) error {
	if len(snap.Generations) != len(snap.Alive) {
		return eris.Errorf("simstore: entity snapshot has %d generations but %d liveness flags",
			len(snap.Generations), len(snap.Alive))
	}
	slots := make([]entitySlot, len(snap.Generations))
	alive := 0
	for i := range slots {
		slots[i] = entitySlot{generation: snap.Generations[i], alive: snap.Alive[i]}
		if slots[i].alive {
			alive++
		}
	}
	for _, index := range snap.Free {
		if int(index) >= len(slots) || slots[index].alive {
			return eris.Errorf("simstore: entity snapshot frees invalid slot %d", index)
		}
	}
	t.slots = slots
	t.free = slices.Clone(snap.Free)
	t.alive = alive
	return nil
}
