package ecs

import (
	"testing"

	"github.com/zeusync/flowecs/internal/core/flowpool"
	"github.com/zeusync/flowecs/internal/core/observability/log"
)

func testManager(t *testing.T) (*Manager, *flowpool.FlowPool) {
	t.Helper()
	pool := flowpool.New(flowpool.Config{NThreads: 4}, log.New(log.LevelError), nil)
	return NewManager(pool, log.New(log.LevelError)), pool
}

// TestApplyTwoThenOneComponent reproduces S3: a two-component apply
// followed immediately by a single-component apply on one of the same
// components, with no intervening Wait. The second apply's task must be
// ordered behind the first via the interval map, or the arithmetic below
// would not come out right.
func TestApplyTwoThenOneComponent(t *testing.T) {
	m, pool := testManager(t)
	defer func() { _ = pool.Close() }()

	a := NewComponent[float64]("a")
	b := NewComponent[float64]("b")

	a.Create(1, 0)
	a.Create(3, 2)
	a.Create(4, 3)
	a.Update()

	b.Create(1, 0)
	b.Create(2, 1)
	b.Create(3, 2)
	b.Create(4, 3)
	b.Update()

	Apply2(m, a, b, func(x, y *float64) {
		*x += 1
		*y -= *x
	})
	Apply1(m, a, func(x *float64) {
		*x /= 2
	})
	m.Wait()

	wantA := map[EntityID]float64{1: 0.5, 3: 1.5, 4: 2}
	for id, want := range wantA {
		if v := a.Get(id); v == nil || *v != want {
			t.Fatalf("a[%d] = %v, want %v", id, v, want)
		}
	}

	wantB := map[EntityID]float64{1: -1, 2: 1, 3: -1, 4: -1}
	for id, want := range wantB {
		if v := b.Get(id); v == nil || *v != want {
			t.Fatalf("b[%d] = %v, want %v", id, v, want)
		}
	}
}

// TestApplyThreeComponents reproduces S6: only entities present in all
// three components are affected.
func TestApplyThreeComponents(t *testing.T) {
	m, pool := testManager(t)
	defer func() { _ = pool.Close() }()

	a := NewComponent[int]("a")
	b := NewComponent[int]("b")
	c := NewComponent[int]("c")

	for i := EntityID(0); i < 10; i++ {
		a.Create(i, int(i))
		b.Create(i, int(i)*10)
	}
	a.Update()
	b.Update()

	squares := []EntityID{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}
	for _, id := range squares {
		c.Create(id, int(id)*100)
	}
	c.Update()

	Apply3(m, a, b, c, func(x, y, z *int) {
		*z -= *x + *y
	})
	m.Wait()

	wantAffected := map[EntityID]int{0: 0, 1: 89, 4: 356, 9: 801}
	for id, want := range wantAffected {
		if v := c.Get(id); v == nil || *v != want {
			t.Fatalf("c[%d] = %v, want %v", id, v, want)
		}
	}

	untouched := []EntityID{16, 25, 36, 49, 64, 81}
	for _, id := range untouched {
		want := int(id) * 100
		if v := c.Get(id); v == nil || *v != want {
			t.Fatalf("c[%d] = %v, want untouched %v", id, v, want)
		}
	}
}

// TestApplyOverBlockBoundary exercises the block-partitioning path with a
// component large enough to span multiple BlockSize-sized blocks, checking
// that every entry still gets visited exactly once.
func TestApplyOverBlockBoundary(t *testing.T) {
	m, pool := testManager(t)
	defer func() { _ = pool.Close() }()

	a := NewComponent[int]("a")
	const n = BlockSize*3 + 7
	for i := EntityID(0); i < n; i++ {
		a.Create(i, 1)
	}
	a.Update()

	Apply1(m, a, func(x *int) { *x += 1 })
	m.Wait()

	for i := EntityID(0); i < n; i++ {
		if v := a.Get(i); v == nil || *v != 2 {
			t.Fatalf("a[%d] = %v, want 2", i, v)
		}
	}
}

func TestApplyWithPayloadIsReadable(t *testing.T) {
	m, pool := testManager(t)
	defer func() { _ = pool.Close() }()

	a := NewComponent[int]("a")
	a.Create(1, 1)
	a.Update()

	scale := 10
	Apply1WithPayload(m, a, &scale, func(x *int, p *int) {
		*x *= *p
	})
	m.Wait()

	if v := a.Get(1); v == nil || *v != 10 {
		t.Fatalf("a[1] = %v, want 10", v)
	}
}
