package flat

import (
	"context"
	"sync"

	"github.com/finsightlabs/finsight/internal/core/ports"
)

// Manager hands out one index per document. Indexes never share
// vectors across documents; loaded instances are cached per process.
type Manager struct {
	dir string

	mu     sync.Mutex
	loaded map[string]*Index
}

func NewManager(dir string) *Manager {
	return &Manager{
		dir:    dir,
		loaded: make(map[string]*Index),
	}
}

func (m *Manager) Open(_ context.Context, documentID string) (ports.VectorIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.loaded[documentID]; ok {
		return idx, nil
	}

	idx := New(m.dir)
	if err := idx.Load(documentID); err != nil {
		return nil, err
	}
	m.loaded[documentID] = idx
	return idx, nil
}

func (m *Manager) New() ports.VectorIndex {
	return New(m.dir)
}
