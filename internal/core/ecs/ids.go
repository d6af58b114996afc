package ecs

// EntityID is an opaque integer identity shared across components. The
// value 0 is reserved and means "no entity".
type EntityID uint32

// idAllocator hands out EntityIDs from a monotonically increasing counter,
// preferring recycled ids from a freelist. It performs no uniqueness check
// on return: returning an id still in use is undefined behavior the caller
// must avoid.
type idAllocator struct {
	freelist []EntityID
	next     EntityID
}

func newIDAllocator() *idAllocator {
	return &idAllocator{next: 1}
}

// getID returns the last freelist entry if one exists, else a
// post-increment of the monotonic counter.
func (a *idAllocator) getID() EntityID {
	if n := len(a.freelist); n > 0 {
		id := a.freelist[n-1]
		a.freelist = a.freelist[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

// returnID pushes id onto the freelist for future reuse.
func (a *idAllocator) returnID(id EntityID) {
	a.freelist = append(a.freelist, id)
}
