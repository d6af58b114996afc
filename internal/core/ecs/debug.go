package ecs

import (
	"encoding/json"

	"github.com/zeusync/flowecs/pkg/encoding"
)

// DebugSnapshot is a point-in-time, human- and machine-readable view of a
// Manager: pool occupancy plus a one-line summary of every registered
// component. It is the payload the debug view server streams to clients.
type DebugSnapshot struct {
	ManagerID   string   `json:"manager_id"`
	Outstanding int      `json:"outstanding"`
	TotalTasks  int      `json:"total_tasks"`
	Components  []string `json:"components"`
}

var _ encoding.Serializable[DebugSnapshot] = (*DebugSnapshot)(nil)

func (d DebugSnapshot) Serialize() ([]byte, error) {
	return json.Marshal(d)
}

func (d *DebugSnapshot) Deserialize(data []byte) error {
	return json.Unmarshal(data, d)
}

// DebugSnapshot renders the manager's current pool occupancy and component
// list. Safe to call at any time, including while tasks are in flight;
// the numbers are a best-effort snapshot, not a quiescent guarantee.
func (m *Manager) DebugSnapshot() DebugSnapshot {
	outstanding, total := m.pool.Stats()

	m.mu.Lock()
	names := make([]string, len(m.components))
	for i, c := range m.components {
		names[i] = c.DebugString()
	}
	m.mu.Unlock()

	return DebugSnapshot{
		ManagerID:   m.id,
		Outstanding: outstanding,
		TotalTasks:  total,
		Components:  names,
	}
}
