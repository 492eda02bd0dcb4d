package simstore_test

import (
	"testing"

	"github.com/rotisserie/eris"
	"gotest.tools/v3/assert"

	"github.com/DangerosoDavo/simstore"
)

func TestSpawnCommandFillsTarget(t *testing.T) {
	r := newRegistry(t)
	var id simstore.EntityID
	r.Push(simstore.NewSpawnCommand(&id, Health{Amount: 3}, Position{X: 1}))
	assert.Equal(t, 1, r.Pending())
	assert.Assert(t, id.IsZero(), "nothing runs before Execute")

	assert.NilError(t, r.Execute())
	assert.Assert(t, r.Contains(id))
	assert.Assert(t, simstore.Has[Health](r, id))
	assert.Assert(t, simstore.Has[Position](r, id))
	assert.Equal(t, 0, r.Pending())
}

func TestBuiltinCommands(t *testing.T) {
	r := newRegistry(t)
	id := r.SpawnEntity(Health{Amount: 1}).ID()

	r.Push(simstore.NewAttachCommand(id, Position{X: 4}))
	r.Push(simstore.NewDetachCommand(id, Health{}.TypeKey()))
	r.Push(simstore.NewSetSingletonCommand(Clock{Tick: 8}))
	assert.NilError(t, r.Execute())

	got, ok := positionOf(t, r, id)
	assert.Assert(t, ok)
	assert.Equal(t, float32(4), got.X)
	assert.Assert(t, !simstore.Has[Health](r, id))
	simstore.ViewSingleton(r, func(c *Clock) { assert.Equal(t, 8, c.Tick) })

	r.Push(simstore.NewDespawnCommand(id))
	r.Push(simstore.NewDespawnCommand(id))
	r.Push(simstore.NewAttachCommand(id, Health{}))
	assert.NilError(t, r.Execute(), "stale ids are ignored")
	assert.Equal(t, 0, r.Len())

	r.SpawnEntity(Health{})
	r.Push(simstore.NewClearCommand())
	assert.NilError(t, r.Execute())
	assert.Equal(t, 0, r.Len())
	simstore.ViewSingleton(r, func(c *Clock) { assert.Equal(t, Clock{}.Default(), *c) })
}

func TestExecuteRunsInPushOrder(t *testing.T) {
	r := newRegistry(t)
	var order []int
	for i := range 5 {
		r.Push(simstore.CommandFunc(func(*simstore.Registry) error {
			order = append(order, i)
			return nil
		}))
	}
	r.Push(nil)
	assert.Equal(t, 5, r.Pending())
	assert.NilError(t, r.Execute())
	assert.DeepEqual(t, []int{0, 1, 2, 3, 4}, order)
}

func TestExecuteDefersCommandsPushedWhileRunning(t *testing.T) {
	r := newRegistry(t)
	ran := 0
	var follow simstore.Command = simstore.CommandFunc(func(*simstore.Registry) error {
		ran++
		return nil
	})
	r.Push(simstore.CommandFunc(func(r *simstore.Registry) error {
		r.Push(follow)
		return nil
	}))

	assert.NilError(t, r.Execute())
	assert.Equal(t, 0, ran)
	assert.Equal(t, 1, r.Pending())

	assert.NilError(t, r.Execute())
	assert.Equal(t, 1, ran)
	assert.Equal(t, 0, r.Pending())
}

func TestExecuteContinuesPastFailures(t *testing.T) {
	r := newRegistry(t)
	boom := eris.New("boom")
	id := r.SpawnEntity(Health{Amount: 1}).ID()
	ref, ok := simstore.Component[Health](r, id)
	assert.Assert(t, ok)

	r.Push(simstore.CommandFunc(func(*simstore.Registry) error { return boom }))
	r.Push(simstore.NewDetachCommand(id, Health{}.TypeKey()))
	r.Push(simstore.NewSpawnCommand(nil, Position{}))
	err := r.Execute()
	ref.Release()

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, simstore.ErrBorrowed)
	assert.Equal(t, 2, r.Len(), "the spawn after the failures still ran")
	assert.Assert(t, simstore.Has[Health](r, id))
}

func TestCommandsRouteMutationsOutOfIteration(t *testing.T) {
	r := newRegistry(t)
	for i := range 4 {
		r.SpawnEntity(Health{Amount: float32(i)})
	}
	for id := range r.Entities() {
		simstore.View(r, id, func(h *Health) {
			if h.Amount < 2 {
				r.Push(simstore.NewDespawnCommand(id))
			}
		})
	}
	assert.Equal(t, 4, r.Len())
	assert.NilError(t, r.Execute())
	assert.Equal(t, 2, r.Len())
}
