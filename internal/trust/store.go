package trust

import "sync"

// Store persists trust scores between episodes. Each agent reads and appends
// only its own rows.
type Store interface {
	// Load returns the most recent scores recorded by agentID; ok is false
	// when the agent has no history yet.
	Load(agentID string) (scores map[string]float64, ok bool, err error)
	// AppendSnapshot records the agent's scores as of tick.
	AppendSnapshot(agentID string, tick uint64, scores map[string]float64) error
}

// Snapshot is one persisted row set.
type Snapshot struct {
	Tick   uint64
	Scores map[string]float64
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string][]Snapshot
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]Snapshot)}
}

// Load implements Store.
func (m *MemoryStore) Load(agentID string) (map[string]float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[agentID]
	if len(rows) == 0 {
		return nil, false, nil
	}
	return copyScores(rows[len(rows)-1].Scores), true, nil
}

// AppendSnapshot implements Store.
func (m *MemoryStore) AppendSnapshot(agentID string, tick uint64, scores map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[agentID] = append(m.rows[agentID], Snapshot{Tick: tick, Scores: copyScores(scores)})
	return nil
}

// History returns every snapshot appended for agentID.
func (m *MemoryStore) History(agentID string) []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Snapshot(nil), m.rows[agentID]...)
}

func copyScores(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
