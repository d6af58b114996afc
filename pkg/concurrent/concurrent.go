// Package concurrent provides generic fan-out helpers over a sequence.Iterator.
package concurrent

import (
	"sync"

	"github.com/zeusync/flowecs/pkg/sequence"
)

// FanOut sends each element of the iterator to multiple handler functions concurrently.
func FanOut[T any](i *sequence.Iterator[T], handlers ...func(T)) {
	var wg sync.WaitGroup
	next, stop := i.Pull()
	defer stop()
	for {
		value, valid := next()
		if !valid {
			break
		}
		for _, handler := range handlers {
			wg.Add(1)
			go func(h func(T), v T) {
				defer wg.Done()
				h(v)
			}(handler, value)
		}
	}
	wg.Wait()
}
