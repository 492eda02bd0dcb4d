package simstore

const exclusive = -1

// cell guards one stored value with a non-blocking reader/writer lock. borrows counts
// shared holders, or is exclusive while a mutable borrow is outstanding.
type cell[T any] struct {
	value   T
	borrows int
}

func newCell[T any](v T) *cell[T] {
	return &cell[T]{value: v}
}

func (c *cell[T]) borrowed() bool {
	return c.borrows != 0
}

func (c *cell[T]) tryShared() bool {
	if c.borrows == exclusive {
		return false
	}
	c.borrows++
	return true
}

func (c *cell[T]) tryExclusive() bool {
	if c.borrows != 0 {
		return false
	}
	c.borrows = exclusive
	return true
}

// Ref is a shared borrow of a stored value. Any number of Refs to the same cell may be
// outstanding; while one is, exclusive borrows of that cell are unavailable.
// The pointer returned by Get must not be written through.
type Ref[T any] struct {
	c *cell[T]
}

func borrowShared[T any](c *cell[T]) (*Ref[T], bool) {
	if c == nil || !c.tryShared() {
		return nil, false
	}
	return &Ref[T]{c: c}, true
}

// Get returns the borrowed value. It panics after Release.
func (r *Ref[T]) Get() *T {
	if r.c == nil {
		panic(ErrReleasedBorrow)
	}
	return &r.c.value
}

// Value returns a copy of the borrowed value.
func (r *Ref[T]) Value() T {
	return *r.Get()
}

// Release ends the borrow. Releasing twice is a no-op.
func (r *Ref[T]) Release() {
	if r == nil || r.c == nil {
		return
	}
	r.c.borrows--
	r.c = nil
}

// RefMut is an exclusive borrow of a stored value. While it is outstanding every other
// borrow of the same cell is unavailable.
type RefMut[T any] struct {
	c *cell[T]
}

func borrowExclusive[T any](c *cell[T]) (*RefMut[T], bool) {
	if c == nil || !c.tryExclusive() {
		return nil, false
	}
	return &RefMut[T]{c: c}, true
}

// Get returns the borrowed value for in-place mutation. It panics after Release.
func (r *RefMut[T]) Get() *T {
	if r.c == nil {
		panic(ErrReleasedBorrow)
	}
	return &r.c.value
}

// Value returns a copy of the borrowed value.
func (r *RefMut[T]) Value() T {
	return *r.Get()
}

// Set overwrites the borrowed value.
func (r *RefMut[T]) Set(v T) {
	*r.Get() = v
}

// Release ends the borrow. Releasing twice is a no-op.
func (r *RefMut[T]) Release() {
	if r == nil || r.c == nil {
		return
	}
	r.c.borrows = 0
	r.c = nil
}
