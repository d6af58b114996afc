// Package sequence provides a small pull-based Iterator used by pkg/concurrent
// to drive the FanOut fan-out helper over arbitrary slices.
package sequence

import "iter"

// Iterator is a generic, immutable, chainable iterator for any type T.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From creates a new Iterator from a slice of T.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// Seq returns the underlying sequence function for advanced use cases.
func (i *Iterator[T]) Seq() iter.Seq[T] {
	return i.seq
}

// Pull pulls the next element from the iterator and returns it along with a
// boolean indicating whether the element was valid.
func (i *Iterator[T]) Pull() (next func() (T, bool), stop func()) {
	return iter.Pull(i.Seq())
}
