package simstore

import "slices"

// Facade is an application-declared bundle of column views over one registry. Types
// embedding FacadeBase resolve their columns once, at construction, and are then
// passed to Query.
type Facade interface {
	Registry() *Registry
}

// FacadeBase provides the Registry method of Facade.
type FacadeBase struct {
	registry *Registry
}

// NewFacadeBase binds a facade to r.
func NewFacadeBase(r *Registry) FacadeBase {
	return FacadeBase{registry: r}
}

func (f FacadeBase) Registry() *Registry {
	return f.registry
}

// Borrows collects the borrows taken while fetching one query row so they can be
// released together.
type Borrows struct {
	releases []func()
}

// Defer records a release function run by Release.
func (b *Borrows) Defer(release func()) {
	if release != nil {
		b.releases = append(b.releases, release)
	}
}

// Len reports how many borrows are held.
func (b *Borrows) Len() int {
	return len(b.releases)
}

// Release ends every recorded borrow, newest first.
func (b *Borrows) Release() {
	for _, release := range slices.Backward(b.releases) {
		release()
	}
	b.releases = b.releases[:0]
}

// AcquireShared borrows id's value in col for reading and records the borrow in b.
func AcquireShared[T any](b *Borrows, col *Column[T], id EntityID) (*T, bool) {
	ref, ok := col.Get(id)
	if !ok {
		return nil, false
	}
	b.Defer(ref.Release)
	return ref.Get(), true
}

// AcquireExclusive borrows id's value in col for writing and records the borrow in b.
func AcquireExclusive[T any](b *Borrows, col *Column[T], id EntityID) (*T, bool) {
	ref, ok := col.GetMut(id)
	if !ok {
		return nil, false
	}
	b.Defer(ref.Release)
	return ref.Get(), true
}

// AcquireSingleton borrows a singleton for reading, or for writing when mutable is set,
// and records the borrow in b.
func AcquireSingleton[T any](b *Borrows, slot *SingletonSlot[T], mutable bool) (*T, bool) {
	if mutable {
		ref, ok := slot.GetMut()
		if !ok {
			return nil, false
		}
		b.Defer(ref.Release)
		return ref.Get(), true
	}
	ref, ok := slot.Get()
	if !ok {
		return nil, false
	}
	b.Defer(ref.Release)
	return ref.Get(), true
}
