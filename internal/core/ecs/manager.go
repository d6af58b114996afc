package ecs

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/zeusync/flowecs/internal/core/flowpool"
	"github.com/zeusync/flowecs/internal/core/observability/log"
)

// componentHandle is the uniform surface the Manager's registry drives
// across heterogeneous Component[T] instances: registration-order Update,
// fan-out Destroy, dependency-state reset, and debug rendering.
type componentHandle interface {
	Name() string
	Len() int
	Update()
	Destroy(id EntityID)
	DebugString() string
	clearWaitingFlags()
}

// Manager owns the entity id allocator and the component registry, and is
// the entry point for apply/update/destroy/wait. It holds non-owning
// handles to components: callers create and keep their own
// *Component[T] and register it once.
type Manager struct {
	id string

	mu sync.Mutex // guards ids and the registry; apply/update/destroy are meant to run single-threaded, this just makes misuse cheap to catch rather than silently racy

	ids  *idAllocator
	pool *flowpool.FlowPool

	components []componentHandle
	nameHashes map[uint64]string

	logger log.Log
}

// NewManager builds a Manager driven by pool. pool is not owned; callers
// are responsible for closing it once the Manager is no longer in use.
func NewManager(pool *flowpool.FlowPool, logger log.Log) *Manager {
	if logger == nil {
		logger = log.New(log.LevelInfo)
	}
	return &Manager{
		id:         uuid.NewString(),
		ids:        newIDAllocator(),
		pool:       pool,
		nameHashes: make(map[uint64]string),
		logger:     logger.With(log.String("component", "manager")),
	}
}

// GetID allocates an EntityID, preferring a recycled one.
func (m *Manager) GetID() EntityID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids.getID()
}

// ReturnID recycles id for future allocation. Returning an id still
// referenced by a component's data or queues is undefined behavior.
func (m *Manager) ReturnID(id EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids.returnID(id)
}

// Register adds c to the manager's registry under its debug name. Register
// must be called while quiescent, before any apply touching c.
func Register[T any](m *Manager, c *Component[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := xxhash.Sum64String(c.name)
	if existing, ok := m.nameHashes[h]; ok && existing != c.name {
		m.logger.Warn("component debug name hash collision",
			log.String("existing", existing), log.String("new", c.name))
	}
	m.nameHashes[h] = c.name
	m.components = append(m.components, c)
}

// Update invokes every registered component's Update in registration order.
// Must be called while quiescent (see Wait).
func (m *Manager) Update() {
	for _, c := range m.components {
		c.Update()
	}
}

// Destroy enqueues a destroy of id on every registered component.
func (m *Manager) Destroy(id EntityID) {
	for _, c := range m.components {
		c.Destroy(id)
	}
}

// Wait drains the flow pool and then clears every registered component's
// dependency-tracking state, the precondition Update requires.
func (m *Manager) Wait() {
	m.pool.Wait()
	for _, c := range m.components {
		c.clearWaitingFlags()
	}
}
