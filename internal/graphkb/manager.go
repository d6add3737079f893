package graphkb

import (
	"os"
	"sync"
)

// Manager owns every store's Graph, lazily loading each from disk on first
// access, mirroring the per-store-table shape of internal/vectorindex and
// internal/ftsindex so callers treat all three index kinds the same way.
type Manager struct {
	mu     sync.Mutex
	dir    string
	graphs map[string]*Graph
}

// NewManager roots every store's graph file under dir (spec's
// code-graph/<storeId>.json).
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, graphs: map[string]*Graph{}}
}

// Build extracts a fresh graph for storeID from rootPath and persists it,
// replacing any graph previously held for that store.
func (m *Manager) Build(storeID, rootPath string) error {
	g := New(m.dir, storeID)
	if err := g.Build(rootPath); err != nil {
		return err
	}
	m.mu.Lock()
	m.graphs[storeID] = g
	m.mu.Unlock()
	return nil
}

// Get returns storeID's graph, loading it from disk on first access. A
// store with no graph file yet (never built, or no Go sources) returns an
// empty Graph rather than an error — every GraphProvider method on it just
// reports zero values, which is the spec's graceful-degradation contract.
func (m *Manager) Get(storeID string) (*Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.graphs[storeID]; ok {
		return g, nil
	}
	g := New(m.dir, storeID)
	if err := g.Load(); err != nil {
		return nil, err
	}
	m.graphs[storeID] = g
	return g, nil
}

// DropTable removes storeID's persisted graph file and evicts it from
// memory, implementing store.TableDropper for cascading store delete.
func (m *Manager) DropTable(storeID string) error {
	m.mu.Lock()
	delete(m.graphs, storeID)
	m.mu.Unlock()

	err := os.Remove(dataPath(m.dir, storeID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
