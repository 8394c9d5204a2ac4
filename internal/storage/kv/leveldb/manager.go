package leveldb

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/poolworks/swapd/internal/storage/kv"
)

// Manager opens one leveldb database per namespace under a root path.
type Manager struct {
	mu   sync.Mutex
	dbs  map[string]*LevelDB
	path string
}

func NewManager(path string) *Manager {
	return &Manager{
		dbs:  make(map[string]*LevelDB),
		path: path,
	}
}

func (m *Manager) OpenDB(name string) (kv.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.dbs[name]; ok {
		return db, nil
	}
	db, err := Open(filepath.Join(m.path, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", name, err)
	}
	m.dbs[name] = db
	return db, nil
}

func (m *Manager) CloseDB(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	db, ok := m.dbs[name]
	if !ok {
		return nil
	}
	delete(m.dbs, name)
	return db.Close()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, db := range m.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close store %s: %w", name, err)
		}
		delete(m.dbs, name)
	}
	return firstErr
}

var _ kv.Manager = (*Manager)(nil)
