package history

import (
	"context"
	"sync"
)

// Manager wraps a Journal with lifecycle checks and logging. The concrete
// backend is injected so this package stays free of driver imports.
type Manager struct {
	journal Journal
	logger  Logger

	mu     sync.RWMutex
	opened bool
}

// ManagerOption defines functional options for Manager
type ManagerOption func(*Manager)

// WithLogger sets the logger for the manager
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a journal manager
func NewManager(journal Journal, options ...ManagerOption) *Manager {
	m := &Manager{
		journal: journal,
		logger:  NewDefaultLogger(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Open verifies the journal connection.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opened {
		return nil
	}
	if err := m.journal.Ping(ctx); err != nil {
		m.logger.Error("history journal ping failed: %v", err)
		return err
	}
	m.opened = true
	m.logger.Info("history journal opened")
	return nil
}

// Journal returns the underlying journal.
func (m *Manager) Journal() Journal {
	return m.journal
}

// Record journals one record, logging instead of failing the caller when
// the write does not go through. The journal is an audit trail, not part
// of the operation's atomic effect.
func (m *Manager) Record(ctx context.Context, rec *Record) {
	m.mu.RLock()
	opened := m.opened
	m.mu.RUnlock()
	if !opened {
		return
	}
	if _, err := m.journal.Append(ctx, rec); err != nil {
		m.logger.Error("failed to journal %s by %s: %v", rec.OpType, rec.Account, err)
	}
}

// Close closes the underlying journal.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.opened {
		return nil
	}
	m.opened = false
	m.logger.Info("history journal closed")
	return m.journal.Close()
}
