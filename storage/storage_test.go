package storage

import (
	"testing"
)

func TestSlotsCRUD(t *testing.T) {
	for _, strategy := range []Strategy{Dense, Sparse} {
		t.Run(strategy.Name(), func(t *testing.T) {
			slots := New[int](strategy)
			if slots.Strategy() != strategy {
				t.Fatalf("unexpected strategy: %v", slots.Strategy())
			}

			slots.Set(3, 1, 42)
			if got, ok := slots.Get(3, 1); !ok || got != 42 {
				t.Fatalf("unexpected get result: %d, ok=%v", got, ok)
			}
			if slots.Len() != 1 {
				t.Fatalf("expected 1 slot, got %d", slots.Len())
			}

			called := false
			slots.Range(func(index, generation uint32, v int) bool {
				called = true
				if index != 3 || generation != 1 || v != 42 {
					t.Fatalf("unexpected slot: %d:%d=%d", index, generation, v)
				}
				return true
			})
			if !called {
				t.Fatalf("expected range to visit slot")
			}

			if v, ok := slots.Remove(3, 1); !ok || v != 42 {
				t.Fatalf("remove failed: %d, ok=%v", v, ok)
			}
			if _, ok := slots.Get(3, 1); ok {
				t.Fatalf("value should be removed")
			}
			if slots.Len() != 0 {
				t.Fatalf("expected empty slots, got %d", slots.Len())
			}
		})
	}
}

func TestSlotsRejectStaleGeneration(t *testing.T) {
	for _, strategy := range []Strategy{Dense, Sparse} {
		t.Run(strategy.Name(), func(t *testing.T) {
			slots := New[string](strategy)
			slots.Set(0, 2, "current")

			if _, ok := slots.Get(0, 1); ok {
				t.Fatalf("stale generation should miss")
			}
			if _, ok := slots.Remove(0, 1); ok {
				t.Fatalf("stale generation should not remove")
			}

			slots.Set(0, 4, "replaced")
			if slots.Len() != 1 {
				t.Fatalf("replacing a slot should not grow the table, got %d", slots.Len())
			}
			if _, ok := slots.Get(0, 2); ok {
				t.Fatalf("replaced generation should miss")
			}
			if gen, v, ok := slots.At(0); !ok || gen != 4 || v != "replaced" {
				t.Fatalf("unexpected occupant %d %q (ok=%v)", gen, v, ok)
			}
			if _, _, ok := slots.At(7); ok {
				t.Fatalf("empty index should have no occupant")
			}
		})
	}
}

func TestSlotsRangeOrderAndClear(t *testing.T) {
	for _, strategy := range []Strategy{Dense, Sparse} {
		t.Run(strategy.Name(), func(t *testing.T) {
			slots := New[int](strategy)
			for _, idx := range []uint32{9, 2, 5} {
				slots.Set(idx, 1, int(idx))
			}

			var order []uint32
			slots.Range(func(index, _ uint32, _ int) bool {
				order = append(order, index)
				return len(order) < 2
			})
			if len(order) != 2 || order[0] != 2 || order[1] != 5 {
				t.Fatalf("unexpected range order: %v", order)
			}

			slots.Clear()
			if slots.Len() != 0 {
				t.Fatalf("expected clear to empty slots, got %d", slots.Len())
			}
			slots.Range(func(uint32, uint32, int) bool {
				t.Fatalf("range after clear should visit nothing")
				return false
			})
		})
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy("sparse"); err != nil || s != Sparse {
		t.Fatalf("parse sparse: %v, %v", s, err)
	}
	if s, err := ParseStrategy(""); err != nil || s != Dense {
		t.Fatalf("empty name should default to dense: %v, %v", s, err)
	}
	if _, err := ParseStrategy("shared"); err == nil {
		t.Fatalf("expected unknown strategy to fail")
	}
}
