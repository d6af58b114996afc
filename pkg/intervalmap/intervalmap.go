// Package intervalmap implements a sorted, non-overlapping, half-open
// [lo, hi) -> V map with overwrite-and-split semantics on Set and an
// overlap-query Get. It backs the positional dependency tracking each
// component keeps on top of the flow pool: Set records the task that last
// touched a positional range, Get recovers every task id a new range must
// wait behind.
package intervalmap

import "github.com/zeusync/flowecs/pkg/generic"

// interval is one stored [lo, hi) -> value triple.
type interval[V any] struct {
	lo, hi int
	value  V
}

// IntervalMap is not safe for concurrent use; callers serialize access the
// same way they serialize mutation of the component the map is attached to.
type IntervalMap[V any] struct {
	intervals []interval[V]
	resultCap *generic.Pool[[]V]
}

// New returns an empty IntervalMap.
func New[V any]() *IntervalMap[V] {
	return &IntervalMap[V]{
		resultCap: generic.NewHotPool(func() []V { return make([]V, 0, 8) }, 4),
	}
}

// Len reports the number of stored intervals.
func (m *IntervalMap[V]) Len() int {
	return len(m.intervals)
}

// Clear drops every stored interval. Used when a component's dependency
// state is reset after quiescence.
func (m *IntervalMap[V]) Clear() {
	m.intervals = m.intervals[:0]
}

// Set inserts (lo, hi, v), overwriting and splitting any existing interval
// that overlaps [lo, hi). lo must be strictly less than hi; calls that
// violate this are no-ops.
//
// Every existing interval falls into exactly one of four buckets relative
// to the new range: entirely before it, entirely after it, or overlapping
// it on the left, right, or both sides. At most one left remnant and one
// right remnant survive the overlap (an interval that spans the new range
// on both sides contributes both, from the same source interval); the
// rest of the overlapping intervals are fully covered and erased.
func (m *IntervalMap[V]) Set(lo, hi int, v V) {
	if lo >= hi {
		return
	}

	before := m.intervals[:0:0]
	var after []interval[V]
	var leftRemnant, rightRemnant *interval[V]

	for _, iv := range m.intervals {
		switch {
		case iv.hi <= lo:
			before = append(before, iv)
		case iv.lo >= hi:
			after = append(after, iv)
		default:
			if iv.lo < lo {
				r := interval[V]{lo: iv.lo, hi: lo, value: iv.value}
				leftRemnant = &r
			}
			if iv.hi > hi {
				r := interval[V]{lo: hi, hi: iv.hi, value: iv.value}
				rightRemnant = &r
			}
		}
	}

	out := make([]interval[V], 0, len(before)+len(after)+3)
	out = append(out, before...)
	if leftRemnant != nil {
		out = append(out, *leftRemnant)
	}
	out = append(out, interval[V]{lo: lo, hi: hi, value: v})
	if rightRemnant != nil {
		out = append(out, *rightRemnant)
	}
	out = append(out, after...)
	m.intervals = out
}

// Get returns the value of every stored interval [f, l) that overlaps
// [lo, hi) under half-open semantics: hi > f && lo < l. A zero-width or
// inverted query (lo >= hi) always returns nil.
//
// The returned slice is drawn from an internal pool; callers should pass it
// to Release once they are done reading it (typically right after using it
// to build a task's predecessor list).
func (m *IntervalMap[V]) Get(lo, hi int) []V {
	if lo >= hi {
		return nil
	}
	out := m.resultCap.Get()[:0]
	for _, iv := range m.intervals {
		if hi > iv.lo && lo < iv.hi {
			out = append(out, iv.value)
		}
	}
	return out
}

// Release returns a slice obtained from Get to the internal pool.
func (m *IntervalMap[V]) Release(vals []V) {
	if vals == nil {
		return
	}
	m.resultCap.Put(vals[:0])
}
