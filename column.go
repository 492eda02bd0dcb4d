package simstore

import (
	"iter"

	"github.com/rotisserie/eris"

	"github.com/DangerosoDavo/simstore/codec"
	"github.com/DangerosoDavo/simstore/storage"
)

// ErasedStore is the non-generic face of a column store, so the registry can hold
// stores of every component type in one map.
type ErasedStore interface {
	Key() TypeKey
	Name() string
	Strategy() storage.Strategy
	Len() int
	Has(EntityID) bool
	// Borrowed reports whether the entity's value has an outstanding borrow.
	Borrowed(EntityID) bool
	// InsertAny stores value, which must be the column's type or a pointer to it.
	InsertAny(EntityID, any) error
	// Remove drops the entity's value. It reports false when there was none.
	Remove(EntityID) bool
	Clear()
	Serialize(codec.Codec) ([]byte, error)
	// Deserialize replaces the whole contents of the store.
	Deserialize(codec.Codec, []byte) error
	Clone() ErasedStore
	Teardown()
	// Contended counts borrow attempts refused because the cell was locked.
	Contended() uint64
}

// Column stores the values of one component type keyed by entity.
type Column[T any] struct {
	key       TypeKey
	name      string
	slots     storage.Slots[*cell[T]]
	contended uint64
}

func newColumn[T any](key TypeKey, strategy storage.Strategy) *Column[T] {
	return &Column[T]{
		key:   key,
		name:  typeName[T](),
		slots: storage.New[*cell[T]](strategy),
	}
}

// Key returns the type key the column is registered under.
func (c *Column[T]) Key() TypeKey {
	return c.key
}

// Name returns the Go type name of the stored values.
func (c *Column[T]) Name() string {
	return c.name
}

// Strategy returns the slot layout backing the column.
func (c *Column[T]) Strategy() storage.Strategy {
	return c.slots.Strategy()
}

// Len returns the number of stored values.
func (c *Column[T]) Len() int {
	return c.slots.Len()
}

// Contended counts borrow and mutation attempts refused because a cell was borrowed.
func (c *Column[T]) Contended() uint64 {
	return c.contended
}

func (c *Column[T]) lookup(id EntityID) *cell[T] {
	cl, _ := c.slots.Get(id.index, id.generation)
	return cl
}

// Has reports whether a value is stored for id.
func (c *Column[T]) Has(id EntityID) bool {
	_, ok := c.slots.Get(id.index, id.generation)
	return ok
}

// Borrowed reports whether id's value has an outstanding borrow.
func (c *Column[T]) Borrowed(id EntityID) bool {
	cl := c.lookup(id)
	return cl != nil && cl.borrowed()
}

// Insert stores v for id. It refuses, returning false, when the slot holds a borrowed
// value or belongs to a newer generation than id.
func (c *Column[T]) Insert(id EntityID, v T) bool {
	if gen, prev, ok := c.slots.At(id.index); ok && (gen > id.generation || prev.borrowed()) {
		c.contended++
		return false
	}
	c.slots.Set(id.index, id.generation, newCell(v))
	return true
}

// InsertAny is Insert for a value of type T or *T. A borrowed or newer slot yields ErrBorrowed.
func (c *Column[T]) InsertAny(id EntityID, value any) error {
	var v T
	switch typed := value.(type) {
	case T:
		v = typed
	case *T:
		if typed == nil {
			return eris.Wrapf(ErrTypeMismatch, "nil %s", c.name)
		}
		v = *typed
	default:
		return eris.Wrapf(ErrTypeMismatch, "store %s got %T", c.name, value)
	}
	if !c.Insert(id, v) {
		return eris.Wrapf(ErrBorrowed, "%s on %v", c.name, id)
	}
	return nil
}

// Get borrows id's value for reading. It reports false when the value is absent or
// exclusively borrowed.
func (c *Column[T]) Get(id EntityID) (*Ref[T], bool) {
	cl := c.lookup(id)
	if cl == nil {
		return nil, false
	}
	ref, ok := borrowShared(cl)
	if !ok {
		c.contended++
	}
	return ref, ok
}

// GetMut borrows id's value for writing. It reports false when the value is absent or
// borrowed in any mode.
func (c *Column[T]) GetMut(id EntityID) (*RefMut[T], bool) {
	cl := c.lookup(id)
	if cl == nil {
		return nil, false
	}
	ref, ok := borrowExclusive(cl)
	if !ok {
		c.contended++
	}
	return ref, ok
}

// Take removes and returns id's value. A borrowed value is left in place.
func (c *Column[T]) Take(id EntityID) (T, bool) {
	var zero T
	cl := c.lookup(id)
	if cl == nil {
		return zero, false
	}
	if cl.borrowed() {
		c.contended++
		return zero, false
	}
	c.slots.Remove(id.index, id.generation)
	return cl.value, true
}

// Remove drops id's value, borrowed or not. It reports false when there was none.
func (c *Column[T]) Remove(id EntityID) bool {
	_, ok := c.slots.Remove(id.index, id.generation)
	return ok
}

// Clear drops every value.
func (c *Column[T]) Clear() {
	c.slots.Clear()
}

// All yields every value that can currently be borrowed for reading, in slot order.
// Each borrow lasts for one step of the loop.
func (c *Column[T]) All() iter.Seq2[EntityID, *T] {
	return func(yield func(EntityID, *T) bool) {
		c.slots.Range(func(index, generation uint32, cl *cell[T]) bool {
			ref, ok := borrowShared(cl)
			if !ok {
				c.contended++
				return true
			}
			defer ref.Release()
			return yield(EntityID{index: index, generation: generation}, ref.Get())
		})
	}
}

// AllMut is All with exclusive borrows.
func (c *Column[T]) AllMut() iter.Seq2[EntityID, *T] {
	return func(yield func(EntityID, *T) bool) {
		c.slots.Range(func(index, generation uint32, cl *cell[T]) bool {
			ref, ok := borrowExclusive(cl)
			if !ok {
				c.contended++
				return true
			}
			defer ref.Release()
			return yield(EntityID{index: index, generation: generation}, ref.Get())
		})
	}
}

type columnRecord[T any] struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
	Value      T      `json:"value"`
}

// Serialize encodes every stored value with its entity index and generation.
func (c *Column[T]) Serialize(cd codec.Codec) ([]byte, error) {
	records := make([]columnRecord[T], 0, c.slots.Len())
	c.slots.Range(func(index, generation uint32, cl *cell[T]) bool {
		records = append(records, columnRecord[T]{Index: index, Generation: generation, Value: cl.value})
		return true
	})
	bz, err := cd.Marshal(records)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to serialize component %s", c.name)
	}
	return bz, nil
}

// Deserialize replaces the column contents with records written by Serialize.
func (c *Column[T]) Deserialize(cd codec.Codec, bz []byte) error {
	var records []columnRecord[T]
	if err := cd.Unmarshal(bz, &records); err != nil {
		return eris.Wrapf(err, "failed to deserialize component %s", c.name)
	}
	slots := storage.New[*cell[T]](c.slots.Strategy())
	for _, rec := range records {
		slots.Set(rec.Index, rec.Generation, newCell(rec.Value))
	}
	c.slots = slots
	return nil
}

// Clone deep-copies the column, using Cloner where T implements it.
func (c *Column[T]) Clone() ErasedStore {
	clone := newColumn[T](c.key, c.slots.Strategy())
	c.slots.Range(func(index, generation uint32, cl *cell[T]) bool {
		clone.slots.Set(index, generation, newCell(cloneValue(cl.value)))
		return true
	})
	return clone
}

// Teardown drops every value and releases the backing slots.
func (c *Column[T]) Teardown() {
	c.slots = storage.New[*cell[T]](c.slots.Strategy())
}

var _ ErasedStore = (*Column[int])(nil)
