package flowpool

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/zeusync/flowecs/internal/core/observability/log"
)

func testLogger() log.Log {
	return log.New(log.LevelError)
}

// TestOrderingViaExplicitPredecessor reproduces S1: a task with an explicit
// predecessor must observe the predecessor's effect.
func TestOrderingViaExplicitPredecessor(t *testing.T) {
	p := New(Config{NThreads: 4}, testLogger(), nil)
	defer func() { _ = p.Close() }()

	a := 1
	t1, err := p.Submit(func() {
		time.Sleep(200 * time.Millisecond)
		a += 1
	}, nil)
	if err != nil {
		t.Fatalf("submit t1: %v", err)
	}
	_, err = p.Submit(func() { a *= a }, []TaskID{t1})
	if err != nil {
		t.Fatalf("submit t2: %v", err)
	}

	p.Wait()

	if a != 4 {
		t.Fatalf("a = %d, want 4", a)
	}
}

// TestIndependentTasksRunConcurrently reproduces S2: a task with no
// predecessors runs alongside an unrelated in-flight task rather than
// waiting behind it.
func TestIndependentTasksRunConcurrently(t *testing.T) {
	p := New(Config{NThreads: 2}, testLogger(), nil)
	defer func() { _ = p.Close() }()

	a, b := 1, 2
	start := time.Now()

	t1, err := p.Submit(func() {
		time.Sleep(200 * time.Millisecond)
		a += 1
	}, nil)
	if err != nil {
		t.Fatalf("submit t1: %v", err)
	}
	_, err = p.Submit(func() { b -= 1 }, nil)
	if err != nil {
		t.Fatalf("submit t2: %v", err)
	}
	t3, err := p.Submit(func() { a *= a }, []TaskID{t1})
	if err != nil {
		t.Fatalf("submit t3: %v", err)
	}
	_, err = p.Submit(func() { a -= 1 }, []TaskID{t3})
	if err != nil {
		t.Fatalf("submit t4: %v", err)
	}

	p.Wait()
	elapsed := time.Since(start)

	if a != 3 {
		t.Fatalf("a = %d, want 3", a)
	}
	if b != 1 {
		t.Fatalf("b = %d, want 1", b)
	}
	if elapsed < 200*time.Millisecond {
		t.Fatalf("elapsed %v, want >= 200ms (t2 should not wait on t1)", elapsed)
	}
	if elapsed >= 400*time.Millisecond {
		t.Fatalf("elapsed %v, want < 400ms (t2 should run concurrently with t1)", elapsed)
	}
}

// TestPredecessorHappensBeforeSuccessor checks invariant 3: every
// predecessor's DONE transition happens-before the dependent task's body.
func TestPredecessorHappensBeforeSuccessor(t *testing.T) {
	p := New(Config{NThreads: 4}, testLogger(), nil)
	defer func() { _ = p.Close() }()

	var mu sync.Mutex
	var order []int
	var prev TaskID
	havePrev := false

	for i := 0; i < 5; i++ {
		i := i
		var preds []TaskID
		if havePrev {
			preds = []TaskID{prev}
		}
		id, err := p.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}, preds)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		prev, havePrev = id, true
	}

	p.Wait()

	want := []int{0, 1, 2, 3, 4}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("execution order = %v, want %v", order, want)
	}
}

// TestWaitResetsSchedulerState checks invariant 2: after Wait, outstanding
// count and total task count are both zero, and IDs restart at zero.
func TestWaitResetsSchedulerState(t *testing.T) {
	p := New(Config{NThreads: 2}, testLogger(), nil)
	defer func() { _ = p.Close() }()

	_, _ = p.Submit(func() {}, nil)
	_, _ = p.Submit(func() {}, nil)
	p.Wait()

	if outstanding, total := p.Stats(); outstanding != 0 || total != 0 {
		t.Fatalf("after Wait: outstanding=%d total=%d, want 0,0", outstanding, total)
	}

	id, err := p.Submit(func() {}, nil)
	if err != nil {
		t.Fatalf("submit after reset: %v", err)
	}
	if id != 0 {
		t.Fatalf("task id after reset = %d, want 0", id)
	}
	p.Wait()
}

func TestSubmitAfterCloseReturnsErrPoolClosed(t *testing.T) {
	p := New(Config{NThreads: 1}, testLogger(), nil)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := p.Submit(func() {}, nil); err != ErrPoolClosed {
		t.Fatalf("submit after close: got %v, want ErrPoolClosed", err)
	}
}

func TestSubmitWithUnknownPredecessorIsRejected(t *testing.T) {
	p := New(Config{NThreads: 1}, testLogger(), nil)
	defer func() { _ = p.Close() }()

	if _, err := p.Submit(func() {}, []TaskID{5}); err != ErrUnknownPredecessor {
		t.Fatalf("submit with future id: got %v, want ErrUnknownPredecessor", err)
	}

	t1, err := p.Submit(func() {}, nil)
	if err != nil {
		t.Fatalf("submit t1: %v", err)
	}
	p.Wait()

	// t1's id is valid only within the cycle it was issued in; after Wait
	// resets the counter, it names no task in the new cycle.
	if _, err = p.Submit(func() {}, []TaskID{t1}); err != ErrUnknownPredecessor {
		t.Fatalf("submit with stale id after reset: got %v, want ErrUnknownPredecessor", err)
	}
}

func TestNThreadsClampedToOne(t *testing.T) {
	p := New(Config{NThreads: 0}, testLogger(), nil)
	defer func() { _ = p.Close() }()

	done := make(chan struct{})
	_, err := p.Submit(func() { close(done) }, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran; pool may have started with zero workers")
	}
}
