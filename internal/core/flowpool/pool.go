// Package flowpool implements a fixed-size worker pool whose queued tasks
// carry explicit dependency edges: a task is ineligible to run until every
// listed predecessor has reached DONE. This replaces the usual FIFO or
// priority queue with an eligibility scan over a task DAG, trading O(n*d)
// scheduling overhead for a single coarse mutex and dense integer task IDs
// that are cheap to store in predecessor lists and interval maps.
package flowpool

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/flowecs/internal/core/events/bus"
	"github.com/zeusync/flowecs/internal/core/observability/log"
)

// FlowPool is a DAG-ordered worker pool. The zero value is not usable; build
// one with New. A FlowPool is safe for concurrent Submit calls from any
// number of goroutines; Wait and Close are meant to be called from the
// single thread that drives the surrounding Manager.
type FlowPool struct {
	mu            sync.Mutex
	taskAvailable *sync.Cond
	tasksDone     *sync.Cond

	tasks  []func()
	status []Status
	preds  [][]TaskID

	nTasks     int // outstanding: submitted but not yet DONE
	totalTasks int // monotonic counter since the last reset

	running bool
	workers errgroup.Group

	runID    string
	logger   log.Log
	eventBus bus.EventBus
}

// New builds a FlowPool and immediately spawns cfg.NThreads worker
// goroutines. eventBus may be nil; when set, every task completion is
// published as a "flowpool.task.done" event for the debug view to observe.
func New(cfg Config, logger log.Log, eventBus bus.EventBus) *FlowPool {
	if cfg.NThreads < 1 {
		cfg.NThreads = 1
	}
	if logger == nil {
		logger = log.New(log.LevelInfo)
	}

	p := &FlowPool{
		running:  true,
		runID:    uuid.NewString(),
		logger:   logger.With(log.String("component", "flowpool")),
		eventBus: eventBus,
	}
	p.taskAvailable = sync.NewCond(&p.mu)
	p.tasksDone = sync.NewCond(&p.mu)

	p.logger.Info("flow pool starting",
		log.String("run_id", p.runID),
		log.Int("n_threads", cfg.NThreads))

	for i := 0; i < cfg.NThreads; i++ {
		p.workers.Go(func() error {
			p.runWorker()
			return nil
		})
	}

	return p
}

// Submit appends a task with the given predecessor IDs and returns its ID.
// The task becomes eligible once every predecessor reaches DONE; an empty
// preds list makes it immediately eligible. Submit returns ErrPoolClosed
// once Close has been called.
func (p *FlowPool) Submit(f func(), preds []TaskID) (TaskID, error) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return 0, ErrPoolClosed
	}

	for _, pred := range preds {
		if pred < 0 || int(pred) >= p.totalTasks {
			p.mu.Unlock()
			return 0, ErrUnknownPredecessor
		}
	}

	id := TaskID(p.totalTasks)
	p.tasks = append(p.tasks, f)
	p.status = append(p.status, StatusWaiting)
	p.preds = append(p.preds, preds)
	p.nTasks++
	p.totalTasks++
	p.mu.Unlock()

	p.taskAvailable.Signal()
	return id, nil
}

// Wait blocks until every submitted task has reached DONE, then clears all
// task state and resets the ID counter to zero. This is the sole point at
// which task IDs are invalidated; callers must not reuse IDs obtained
// before a Wait call.
func (p *FlowPool) Wait() {
	p.mu.Lock()
	for p.nTasks != 0 {
		p.tasksDone.Wait()
	}
	p.tasks = p.tasks[:0]
	p.status = p.status[:0]
	p.preds = p.preds[:0]
	p.totalTasks = 0
	p.mu.Unlock()
}

// Close drains outstanding tasks, stops every worker, and waits for them to
// exit. Close is idempotent-safe to call once; calling Submit afterward
// always returns ErrPoolClosed.
func (p *FlowPool) Close() error {
	p.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	p.taskAvailable.Broadcast()

	err := p.workers.Wait()
	p.logger.Info("flow pool stopped", log.String("run_id", p.runID))
	return err
}

// Stats returns a debug-only snapshot of pool occupancy: the number of
// tasks submitted but not yet DONE, and the number submitted since the
// last Wait.
func (p *FlowPool) Stats() (outstanding, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nTasks, p.totalTasks
}

// runWorker is the body of a single worker goroutine. While a pool is
// running it alternates between an eligibility scan and, finding nothing
// eligible, blocking on taskAvailable; a completion always signals one
// waiter so no worker is permanently stranded behind a pending dependency.
func (p *FlowPool) runWorker() {
	for {
		p.mu.Lock()
		for {
			if idx, ok := p.findEligibleLocked(); ok {
				task := p.tasks[idx]
				p.tasks[idx] = nil
				p.status[idx] = StatusInProgress
				p.mu.Unlock()

				task()

				p.mu.Lock()
				p.status[idx] = StatusDone
				p.nTasks--
				p.mu.Unlock()

				p.tasksDone.Broadcast()
				p.taskAvailable.Signal()
				p.publishDone(TaskID(idx))
				break
			}

			if !p.running {
				p.mu.Unlock()
				return
			}
			p.taskAvailable.Wait()
		}
	}
}

// findEligibleLocked scans from index 0 for the first WAITING task whose
// predecessors are all DONE. Must be called with p.mu held.
func (p *FlowPool) findEligibleLocked() (int, bool) {
	for i, st := range p.status {
		if st != StatusWaiting {
			continue
		}
		eligible := true
		for _, pred := range p.preds[i] {
			if p.status[pred] != StatusDone {
				eligible = false
				break
			}
		}
		if eligible {
			return i, true
		}
	}
	return 0, false
}

func (p *FlowPool) publishDone(id TaskID) {
	if p.eventBus == nil {
		return
	}
	p.eventBus.PublishAsync(bus.NewEvent("flowpool.task.done", p.runID, id, 0, nil))
}
