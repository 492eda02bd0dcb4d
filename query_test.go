package simstore_test

import (
	"slices"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/DangerosoDavo/simstore"
)

type bodies struct {
	simstore.FacadeBase
	health    *simstore.Column[Health]
	positions *simstore.Column[Position]
	names     *simstore.Column[Name]
}

func newBodies(r *simstore.Registry) *bodies {
	return &bodies{
		FacadeBase: simstore.NewFacadeBase(r),
		health:     simstore.Components[Health](r),
		positions:  simstore.Components[Position](r),
		names:      simstore.Components[Name](r),
	}
}

func TestQueryConjunction(t *testing.T) {
	r := newRegistry(t)
	both := r.SpawnEntity(Health{Amount: 1}, Position{X: 1}).ID()
	r.SpawnEntity(Health{Amount: 2})
	r.SpawnEntity(Position{X: 3})
	all := r.SpawnEntity(Health{Amount: 4}, Position{X: 4}, Name{Value: "all"}).ID()
	f := newBodies(r)

	var got []simstore.EntityID
	for id, row := range simstore.Query2(f, simstore.Shared(f.health), simstore.Shared(f.positions)) {
		assert.Equal(t, row.First.Amount, row.Second.X)
		got = append(got, id)
	}
	assert.Assert(t, slices.Equal([]simstore.EntityID{both, all}, got), "got %v", got)

	got = got[:0]
	for id := range simstore.Query3(f, simstore.Shared(f.health), simstore.Shared(f.positions), simstore.Shared(f.names)) {
		got = append(got, id)
	}
	assert.Assert(t, slices.Equal([]simstore.EntityID{all}, got), "got %v", got)
}

func TestQuerySkipsContendedEntities(t *testing.T) {
	r := newRegistry(t)
	a := r.SpawnEntity(Health{Amount: 1}, Position{}).ID()
	b := r.SpawnEntity(Health{Amount: 2}, Position{}).ID()
	f := newBodies(r)

	held, ok := simstore.Component[Position](r, a)
	assert.Assert(t, ok)

	var got []simstore.EntityID
	for id, row := range simstore.Query2(f, simstore.Shared(f.health), simstore.Exclusive(f.positions)) {
		row.Second.X = 10
		got = append(got, id)
	}
	assert.Assert(t, slices.Equal([]simstore.EntityID{b}, got), "got %v", got)

	// a shared query can still read alongside the held shared borrow
	got = got[:0]
	for id := range simstore.Query1(f, simstore.Shared(f.positions)) {
		got = append(got, id)
	}
	assert.Assert(t, slices.Equal([]simstore.EntityID{a, b}, got), "got %v", got)
	held.Release()

	// the failed fetch must not leave a's health borrowed
	_, ok = simstore.ComponentMut[Health](r, a)
	assert.Assert(t, ok)
}

func TestQueryReleasesBorrowsAfterEachRow(t *testing.T) {
	r := newRegistry(t)
	a := r.SpawnEntity(Health{Amount: 1}).ID()
	b := r.SpawnEntity(Health{Amount: 2}).ID()
	f := newBodies(r)

	for id, h := range simstore.Query1(f, simstore.Exclusive(f.health)) {
		h.Amount *= 10
		_, ok := simstore.Component[Health](r, id)
		assert.Assert(t, !ok, "the current row is held exclusively")
		if id == a {
			ref, ok := simstore.Component[Health](r, b)
			assert.Assert(t, ok, "other rows are free while the loop body runs")
			ref.Release()
		}
	}
	for range simstore.Query1(f, simstore.Exclusive(f.health)) {
		break
	}
	for _, id := range []simstore.EntityID{a, b} {
		ref, ok := simstore.ComponentMut[Health](r, id)
		assert.Assert(t, ok, "borrows outlived the query")
		ref.Release()
	}
	simstore.View(r, b, func(h *Health) { assert.Equal(t, float32(20), h.Amount) })
}

func TestQueryRejectsAliasedExclusiveAccess(t *testing.T) {
	r := newRegistry(t)
	r.SpawnEntity(Health{Amount: 1})
	f := newBodies(r)

	n := 0
	for range simstore.Query2(f, simstore.Exclusive(f.health), simstore.Shared(f.health)) {
		n++
	}
	assert.Equal(t, 0, n)
	for range simstore.Query2(f, simstore.Shared(f.health), simstore.Shared(f.health)) {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestQueryCustomFetch(t *testing.T) {
	r := newRegistry(t)
	r.SpawnEntity(Health{Amount: 5}, Name{Value: "five"})
	r.SpawnEntity(Health{Amount: 6})
	f := newBodies(r)
	clock := simstore.SingletonOf[Clock](r)

	type labelled struct {
		name string
		hp   float32
		rate int
	}
	fetch := func(b *simstore.Borrows, id simstore.EntityID) (labelled, bool) {
		h, ok := simstore.AcquireShared(b, f.health, id)
		if !ok {
			return labelled{}, false
		}
		n, ok := simstore.AcquireShared(b, f.names, id)
		if !ok {
			return labelled{}, false
		}
		c, ok := simstore.AcquireSingleton(b, clock, false)
		if !ok {
			return labelled{}, false
		}
		return labelled{name: n.Value, hp: h.Amount, rate: c.Rate}, true
	}

	var rows []labelled
	for _, row := range simstore.Query[labelled](f, fetch) {
		rows = append(rows, row)
	}
	assert.Equal(t, 1, len(rows))
	assert.Equal(t, labelled{name: "five", hp: 5, rate: 60}, rows[0])

	// the singleton borrow ended with the row
	assert.Assert(t, simstore.UpdateSingleton(r, func(c *Clock) { c.Tick++ }))
}

func TestRegistryIsAFacade(t *testing.T) {
	r := newRegistry(t)
	r.SpawnEntity(Health{Amount: 1})
	r.SpawnEntity(Health{Amount: 2})

	var amounts []float32
	for _, h := range simstore.Query1(r, simstore.Shared(simstore.Components[Health](r))) {
		amounts = append(amounts, h.Amount)
	}
	assert.Assert(t, slices.Equal([]float32{1, 2}, amounts))
}

func TestBorrowsReleaseNewestFirst(t *testing.T) {
	var b simstore.Borrows
	var order []int
	b.Defer(func() { order = append(order, 1) })
	b.Defer(func() { order = append(order, 2) })
	b.Defer(nil)
	assert.Equal(t, 2, b.Len())
	b.Release()
	b.Release()
	assert.DeepEqual(t, []int{2, 1}, order)
}
