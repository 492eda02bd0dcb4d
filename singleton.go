package simstore

import (
	"github.com/rotisserie/eris"

	"github.com/DangerosoDavo/simstore/codec"
)

// ErasedSingleton is the non-generic face of a singleton slot.
type ErasedSingleton interface {
	Key() TypeKey
	Name() string
	// SetAny overwrites the value, which must be the slot's type or a pointer to it.
	SetAny(any) error
	// Reset restores the type's default value.
	Reset()
	Serialize(codec.Codec) ([]byte, error)
	Deserialize(codec.Codec, []byte) error
	Clone() ErasedSingleton
	Teardown()
	Contended() uint64
}

// SingletonSlot holds the single registry-wide value of T. It is present from
// registration until the registry is closed.
type SingletonSlot[T any] struct {
	key       TypeKey
	name      string
	cell      *cell[T]
	contended uint64
}

func newSingletonSlot[T any](key TypeKey) *SingletonSlot[T] {
	return &SingletonSlot[T]{
		key:  key,
		name: typeName[T](),
		cell: newCell(defaultValue[T]()),
	}
}

// Key returns the type key the slot is registered under.
func (s *SingletonSlot[T]) Key() TypeKey {
	return s.key
}

// Name returns the Go type name of the held value.
func (s *SingletonSlot[T]) Name() string {
	return s.name
}

// Contended counts borrow and set attempts refused because the value was borrowed.
func (s *SingletonSlot[T]) Contended() uint64 {
	return s.contended
}

// Get borrows the value for reading.
func (s *SingletonSlot[T]) Get() (*Ref[T], bool) {
	ref, ok := borrowShared(s.cell)
	if !ok {
		s.contended++
	}
	return ref, ok
}

// GetMut borrows the value for writing.
func (s *SingletonSlot[T]) GetMut() (*RefMut[T], bool) {
	ref, ok := borrowExclusive(s.cell)
	if !ok {
		s.contended++
	}
	return ref, ok
}

// Set overwrites the value unless it is currently borrowed.
func (s *SingletonSlot[T]) Set(v T) bool {
	if s.cell.borrowed() {
		s.contended++
		return false
	}
	s.cell.value = v
	return true
}

// SetAny is Set for a value of type T or *T.
func (s *SingletonSlot[T]) SetAny(value any) error {
	var v T
	switch typed := value.(type) {
	case T:
		v = typed
	case *T:
		if typed == nil {
			return eris.Wrapf(ErrTypeMismatch, "nil %s", s.name)
		}
		v = *typed
	default:
		return eris.Wrapf(ErrTypeMismatch, "singleton %s got %T", s.name, value)
	}
	if !s.Set(v) {
		return eris.Wrapf(ErrBorrowed, "singleton %s", s.name)
	}
	return nil
}

// Reset swaps in a fresh cell holding the default value, so borrows still outstanding
// keep pointing at the old one.
func (s *SingletonSlot[T]) Reset() {
	s.cell = newCell(defaultValue[T]())
}

// Serialize encodes the held value.
func (s *SingletonSlot[T]) Serialize(cd codec.Codec) ([]byte, error) {
	bz, err := cd.Marshal(s.cell.value)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to serialize singleton %s", s.name)
	}
	return bz, nil
}

// Deserialize replaces the held value, starting from the default.
func (s *SingletonSlot[T]) Deserialize(cd codec.Codec, bz []byte) error {
	v := defaultValue[T]()
	if err := cd.Unmarshal(bz, &v); err != nil {
		return eris.Wrapf(err, "failed to deserialize singleton %s", s.name)
	}
	s.cell = newCell(v)
	return nil
}

// Clone deep-copies the slot, using Cloner where T implements it.
func (s *SingletonSlot[T]) Clone() ErasedSingleton {
	return &SingletonSlot[T]{
		key:  s.key,
		name: s.name,
		cell: newCell(cloneValue(s.cell.value)),
	}
}

// Teardown drops the held value.
func (s *SingletonSlot[T]) Teardown() {
	s.cell = newCell(defaultValue[T]())
}

var _ ErasedSingleton = (*SingletonSlot[int])(nil)
