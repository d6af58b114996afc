package ecs

import (
	"sort"

	"github.com/zeusync/flowecs/internal/core/flowpool"
	"github.com/zeusync/flowecs/internal/core/observability/log"
)

func ceilDiv(num, den int) int {
	return (num + den - 1) / den
}

func searchLowerBound[T any](data []entry[T], id EntityID) int {
	return sort.Search(len(data), func(i int) bool { return data[i].id >= id })
}

// Apply1 partitions compA's data into contiguous positional blocks of
// BlockSize and submits one flow pool task per block, each invoking f once
// per value in its range.
func Apply1[A any](m *Manager, compA *Component[A], f func(*A)) {
	apply1(m, compA, func(a *A, _ *struct{}) { f(a) }, nil)
}

// Apply1WithPayload is Apply1 with an opaque, read-only payload forwarded
// to f. The runtime does not synchronize access to payload.
func Apply1WithPayload[A, P any](m *Manager, compA *Component[A], payload *P, f func(*A, *P)) {
	apply1(m, compA, f, payload)
}

func apply1[A, P any](m *Manager, compA *Component[A], f func(*A, *P), payload *P) {
	n := len(compA.data)
	for i := 0; i < n; i += BlockSize {
		j := i + BlockSize
		if j > n {
			j = n
		}
		submitBlock1(m, compA, i, j, f, payload)
	}
}

func submitBlock1[A, P any](m *Manager, compA *Component[A], lo, hi int, f func(*A, *P), payload *P) {
	preds := copyAndRelease(compA.waitingFlags.Get(lo, hi), compA.waitingFlags)

	tid, err := m.pool.Submit(func() {
		for k := lo; k < hi; k++ {
			f(&compA.data[k].value, payload)
		}
	}, preds)
	if err != nil {
		m.logger.Warn("apply1 submit failed", log.Error(err))
		return
	}
	compA.waitingFlags.Set(lo, hi, tid)
}

// Apply2 performs a sorted-merge join over compA and compB, invoking f once
// for every entity id present in both, in ascending id order.
func Apply2[A, B any](m *Manager, compA *Component[A], compB *Component[B], f func(*A, *B)) {
	apply2(m, compA, compB, func(a *A, b *B, _ *struct{}) { f(a, b) }, nil)
}

// Apply2WithPayload is Apply2 with an opaque, read-only payload forwarded
// to f.
func Apply2WithPayload[A, B, P any](m *Manager, compA *Component[A], compB *Component[B], payload *P, f func(*A, *B, *P)) {
	apply2(m, compA, compB, f, payload)
}

func apply2[A, B, P any](m *Manager, compA *Component[A], compB *Component[B], f func(*A, *B, *P), payload *P) {
	na, nb := len(compA.data), len(compB.data)
	if na == 0 || nb == 0 {
		return
	}

	n := ceilDiv(na+nb, 2*BlockSize)
	if n < 1 {
		n = 1
	}
	aStep, bStep := na/n, nb/n

	aLo, bLo := 0, 0
	for i := 0; i < n; i++ {
		var aHi, bHi int
		if i == n-1 {
			aHi, bHi = na, nb
		} else {
			aIdx, bIdx := clampIdx((i+1)*aStep, na), clampIdx((i+1)*bStep, nb)
			bp := meanID(compA.data[aIdx].id, compB.data[bIdx].id)
			aHi = searchLowerBound(compA.data, bp)
			bHi = searchLowerBound(compB.data, bp)
		}

		submitJoin2(m, compA, compB, aLo, aHi, bLo, bHi, f, payload)
		aLo, bLo = aHi, bHi
	}
}

func submitJoin2[A, B, P any](m *Manager, compA *Component[A], compB *Component[B], aLo, aHi, bLo, bHi int, f func(*A, *B, *P), payload *P) {
	if aHi <= aLo && bHi <= bLo {
		return
	}

	predsA := copyAndRelease(compA.waitingFlags.Get(aLo, aHi), compA.waitingFlags)
	predsB := copyAndRelease(compB.waitingFlags.Get(bLo, bHi), compB.waitingFlags)
	preds := append(predsA, predsB...)

	tid, err := m.pool.Submit(func() {
		i, j := aLo, bLo
		for i < aHi && j < bHi {
			aID, bID := compA.data[i].id, compB.data[j].id
			switch {
			case aID == bID:
				f(&compA.data[i].value, &compB.data[j].value, payload)
				i++
				j++
			case aID < bID:
				i++
			default:
				j++
			}
		}
	}, preds)
	if err != nil {
		m.logger.Warn("apply2 submit failed", log.Error(err))
		return
	}

	if aHi > aLo {
		compA.waitingFlags.Set(aLo, aHi, tid)
	}
	if bHi > bLo {
		compB.waitingFlags.Set(bLo, bHi, tid)
	}
}

// Apply3 performs a three-way sorted-merge join, invoking f once for every
// entity id present in all three components.
func Apply3[A, B, C any](m *Manager, compA *Component[A], compB *Component[B], compC *Component[C], f func(*A, *B, *C)) {
	apply3(m, compA, compB, compC, func(a *A, b *B, c *C, _ *struct{}) { f(a, b, c) }, nil)
}

// Apply3WithPayload is Apply3 with an opaque, read-only payload forwarded
// to f.
func Apply3WithPayload[A, B, C, P any](m *Manager, compA *Component[A], compB *Component[B], compC *Component[C], payload *P, f func(*A, *B, *C, *P)) {
	apply3(m, compA, compB, compC, f, payload)
}

func apply3[A, B, C, P any](m *Manager, compA *Component[A], compB *Component[B], compC *Component[C], f func(*A, *B, *C, *P), payload *P) {
	na, nb, nc := len(compA.data), len(compB.data), len(compC.data)
	if na == 0 || nb == 0 || nc == 0 {
		return
	}

	n := ceilDiv(na+nb+nc, 3*BlockSize)
	if n < 1 {
		n = 1
	}
	aStep, bStep, cStep := na/n, nb/n, nc/n

	aLo, bLo, cLo := 0, 0, 0
	for i := 0; i < n; i++ {
		var aHi, bHi, cHi int
		if i == n-1 {
			aHi, bHi, cHi = na, nb, nc
		} else {
			aIdx := clampIdx((i+1)*aStep, na)
			bIdx := clampIdx((i+1)*bStep, nb)
			cIdx := clampIdx((i+1)*cStep, nc)
			bp := meanID3(compA.data[aIdx].id, compB.data[bIdx].id, compC.data[cIdx].id)
			aHi = searchLowerBound(compA.data, bp)
			bHi = searchLowerBound(compB.data, bp)
			cHi = searchLowerBound(compC.data, bp)
		}

		submitJoin3(m, compA, compB, compC, aLo, aHi, bLo, bHi, cLo, cHi, f, payload)
		aLo, bLo, cLo = aHi, bHi, cHi
	}
}

func submitJoin3[A, B, C, P any](m *Manager, compA *Component[A], compB *Component[B], compC *Component[C], aLo, aHi, bLo, bHi, cLo, cHi int, f func(*A, *B, *C, *P), payload *P) {
	if aHi <= aLo && bHi <= bLo && cHi <= cLo {
		return
	}

	predsA := copyAndRelease(compA.waitingFlags.Get(aLo, aHi), compA.waitingFlags)
	predsB := copyAndRelease(compB.waitingFlags.Get(bLo, bHi), compB.waitingFlags)
	predsC := copyAndRelease(compC.waitingFlags.Get(cLo, cHi), compC.waitingFlags)
	preds := append(append(predsA, predsB...), predsC...)

	tid, err := m.pool.Submit(func() {
		i, j, k := aLo, bLo, cLo
		for i < aHi && j < bHi && k < cHi {
			aID, bID, cID := compA.data[i].id, compB.data[j].id, compC.data[k].id
			if aID == bID && bID == cID {
				f(&compA.data[i].value, &compB.data[j].value, &compC.data[k].value, payload)
				i++
				j++
				k++
				continue
			}
			minID := aID
			if bID < minID {
				minID = bID
			}
			if cID < minID {
				minID = cID
			}
			if aID == minID {
				i++
			}
			if bID == minID {
				j++
			}
			if cID == minID {
				k++
			}
		}
	}, preds)
	if err != nil {
		m.logger.Warn("apply3 submit failed", log.Error(err))
		return
	}

	if aHi > aLo {
		compA.waitingFlags.Set(aLo, aHi, tid)
	}
	if bHi > bLo {
		compB.waitingFlags.Set(bLo, bHi, tid)
	}
	if cHi > cLo {
		compC.waitingFlags.Set(cLo, cHi, tid)
	}
}

func clampIdx(idx, n int) int {
	if idx >= n {
		return n - 1
	}
	return idx
}

func meanID(a, b EntityID) EntityID {
	return EntityID((uint64(a) + uint64(b)) / 2)
}

func meanID3(a, b, c EntityID) EntityID {
	return EntityID((uint64(a) + uint64(b) + uint64(c)) / 3)
}

// copyAndRelease copies a pooled predecessor slice into one the flow pool
// can retain indefinitely, then returns the pooled slice for reuse. The
// flow pool stores preds by reference until the next reset, so it must
// never hold a slice the interval map might hand out again.
func copyAndRelease(pooled []flowpool.TaskID, m interface{ Release([]flowpool.TaskID) }) []flowpool.TaskID {
	owned := append([]flowpool.TaskID(nil), pooled...)
	m.Release(pooled)
	return owned
}
