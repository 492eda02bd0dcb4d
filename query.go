package simstore

import "iter"

// FetchFunc acquires the borrows one row needs for id, recording each in b. It reports
// false when any of them is unavailable.
type FetchFunc[R any] func(b *Borrows, id EntityID) (R, bool)

// Query yields a row for every live entity whose fetch succeeds. Borrows taken by a
// fetch are released after the loop body runs for that row, or straight away when the
// fetch fails. Each range over the result starts a fresh pass with fresh borrows.
//
// Spawning or despawning while ranging is unsupported; push commands instead.
func Query[R any](f Facade, fetch FetchFunc[R]) iter.Seq2[EntityID, R] {
	return func(yield func(EntityID, R) bool) {
		r := f.Registry()
		r.ensureOpen()
		for id := range r.Entities() {
			if !visit(id, fetch, yield) {
				return
			}
		}
	}
}

func visit[R any](id EntityID, fetch FetchFunc[R], yield func(EntityID, R) bool) bool {
	var b Borrows
	defer b.Release()
	row, ok := fetch(&b, id)
	if !ok {
		return true
	}
	return yield(id, row)
}

// Access names a column and the mode a query borrows it in.
type Access[T any] struct {
	column    *Column[T]
	exclusive bool
}

// Shared reads col.
func Shared[T any](col *Column[T]) Access[T] {
	return Access[T]{column: col}
}

// Exclusive writes col.
func Exclusive[T any](col *Column[T]) Access[T] {
	return Access[T]{column: col, exclusive: true}
}

// IsExclusive reports whether the access borrows for writing.
func (a Access[T]) IsExclusive() bool {
	return a.exclusive
}

func (a Access[T]) acquire(b *Borrows, id EntityID) (*T, bool) {
	if a.exclusive {
		return AcquireExclusive(b, a.column, id)
	}
	return AcquireShared(b, a.column, id)
}

// Row2 is one result of Query2.
type Row2[A, B any] struct {
	First  *A
	Second *B
}

// Row3 is one result of Query3.
type Row3[A, B, C any] struct {
	First  *A
	Second *B
	Third  *C
}

// Query1 yields every entity carrying an available A.
func Query1[A any](f Facade, a Access[A]) iter.Seq2[EntityID, *A] {
	return Query[*A](f, a.acquire)
}

// Query2 yields every entity on which both A and B are available in the requested modes.
func Query2[A, B any](f Facade, a Access[A], b Access[B]) iter.Seq2[EntityID, Row2[A, B]] {
	return Query[Row2[A, B]](f, func(bs *Borrows, id EntityID) (Row2[A, B], bool) {
		var row Row2[A, B]
		var ok bool
		if row.First, ok = a.acquire(bs, id); !ok {
			return row, false
		}
		if row.Second, ok = b.acquire(bs, id); !ok {
			return row, false
		}
		return row, true
	})
}

// Query3 yields every entity on which A, B and C are all available.
func Query3[A, B, C any](f Facade, a Access[A], b Access[B], c Access[C]) iter.Seq2[EntityID, Row3[A, B, C]] {
	return Query[Row3[A, B, C]](f, func(bs *Borrows, id EntityID) (Row3[A, B, C], bool) {
		var row Row3[A, B, C]
		var ok bool
		if row.First, ok = a.acquire(bs, id); !ok {
			return row, false
		}
		if row.Second, ok = b.acquire(bs, id); !ok {
			return row, false
		}
		if row.Third, ok = c.acquire(bs, id); !ok {
			return row, false
		}
		return row, true
	})
}
