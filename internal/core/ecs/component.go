package ecs

import (
	"fmt"
	"sort"

	"github.com/zeusync/flowecs/internal/core/flowpool"
	"github.com/zeusync/flowecs/pkg/intervalmap"
)

// entry is one stored (entity_id, value) pair.
type entry[T any] struct {
	id    EntityID
	value T
}

// cacheSlot is one direct-mapped lookup cache entry. A slot whose id does
// not match the queried id is a miss regardless of its index; the zero
// value (id 0, index -1) therefore behaves as the "confirmed absent"
// sentinel for any real entity id, since id 0 is never assigned.
type cacheSlot struct {
	id    EntityID
	index int
}

// Component stores an ordered sequence of (entity_id, T) pairs, strictly
// sorted ascending by id with no duplicates. The sorted invariant holds
// only across Update boundaries; between calls, pending mutations queue in
// createQueue/destroyQueue. Component is not safe for concurrent use: all
// mutation must happen on the thread driving the owning Manager, and only
// while no in-flight flow pool task touches the affected positional range.
type Component[T any] struct {
	name string

	data []entry[T]

	createQueue  []entry[T]
	destroyQueue []EntityID

	cache [CacheSize]cacheSlot

	// waitingFlags maps positional ranges of data to the flow pool task
	// that last touched them. The apply engine reads it to derive a new
	// task's predecessors and writes it to record the new task as the
	// current occupant of the ranges it mutates.
	waitingFlags *intervalmap.IntervalMap[flowpool.TaskID]
}

// NewComponent creates an empty component under the given debug name.
func NewComponent[T any](name string) *Component[T] {
	c := &Component[T]{
		name:         name,
		waitingFlags: intervalmap.New[flowpool.TaskID](),
	}
	c.invalidateCache()
	return c
}

// Name returns the component's debug name.
func (c *Component[T]) Name() string { return c.name }

// Len returns the number of entries currently in data, ignoring pending
// queue mutations.
func (c *Component[T]) Len() int { return len(c.data) }

func cacheHash(id EntityID) uint32 {
	return (uint32(id) * 0xf9b25d65 >> 8) & (CacheSize - 1)
}

func (c *Component[T]) invalidateCache() {
	for i := range c.cache {
		c.cache[i] = cacheSlot{id: 0, index: -1}
	}
}

func (c *Component[T]) search(id EntityID) (int, bool) {
	i := sort.Search(len(c.data), func(i int) bool { return c.data[i].id >= id })
	if i < len(c.data) && c.data[i].id == id {
		return i, true
	}
	return i, false
}

// Get returns a pointer to id's value, or nil if id is not present. It
// consults the direct-mapped cache first; on a miss it binary-searches
// data and populates the cache with the result before returning.
func (c *Component[T]) Get(id EntityID) *T {
	slot := &c.cache[cacheHash(id)]
	if slot.id == id {
		if slot.index == -1 {
			return nil
		}
		return &c.data[slot.index].value
	}

	idx, found := c.search(id)
	if !found {
		*slot = cacheSlot{id: id, index: -1}
		return nil
	}
	*slot = cacheSlot{id: id, index: idx}
	return &c.data[idx].value
}

// Create enqueues an insertion of (id, v) to take effect on the next
// Update. Creating an id already present in data is silently accepted and
// breaks the uniqueness invariant; callers must enforce uniqueness
// themselves, typically via the Manager's id allocator.
func (c *Component[T]) Create(id EntityID, v T) {
	c.createQueue = append(c.createQueue, entry[T]{id: id, value: v})
}

// Destroy enqueues a removal of id to take effect on the next Update. It is
// a no-op if id is not present; this method never touches data directly.
func (c *Component[T]) Destroy(id EntityID) {
	c.destroyQueue = append(c.destroyQueue, id)
}

// Update must only be called while the component is quiescent (no in-flight
// flow pool task reads or writes data). It applies destroyQueue (swap with
// last element and pop, descending and deduplicated to keep indices valid
// across removals), then createQueue, re-sorts data ascending by id, clears
// both queues, and resets the lookup cache to its sentinel state.
func (c *Component[T]) Update() {
	if len(c.destroyQueue) > 0 {
		sort.Slice(c.destroyQueue, func(i, j int) bool { return c.destroyQueue[i] > c.destroyQueue[j] })

		deduped := c.destroyQueue[:0]
		var last EntityID
		hasLast := false
		for _, id := range c.destroyQueue {
			if hasLast && id == last {
				continue
			}
			deduped = append(deduped, id)
			last, hasLast = id, true
		}
		c.destroyQueue = deduped

		for _, id := range c.destroyQueue {
			idx, found := c.search(id)
			if !found {
				continue
			}
			lastIdx := len(c.data) - 1
			c.data[idx] = c.data[lastIdx]
			c.data = c.data[:lastIdx]
		}
	}

	if len(c.createQueue) > 0 {
		c.data = append(c.data, c.createQueue...)
	}

	sort.Slice(c.data, func(i, j int) bool { return c.data[i].id < c.data[j].id })

	c.createQueue = c.createQueue[:0]
	c.destroyQueue = c.destroyQueue[:0]
	c.invalidateCache()
}

func (c *Component[T]) clearWaitingFlags() {
	c.waitingFlags.Clear()
}

// DebugString renders a one-line human-readable summary of the component's
// live entry count and outstanding dependency-tracking intervals.
func (c *Component[T]) DebugString() string {
	return fmt.Sprintf("%s: %d entries, %d waiting-flag intervals", c.name, len(c.data), c.waitingFlags.Len())
}
