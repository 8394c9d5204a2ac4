package op

import (
	"errors"
	"fmt"

	"github.com/poolworks/swapd/internal/core/pool"
)

// StateView provides read/write access to durable pool state. Read
// returns nil with no error for a missing entry.
type StateView interface {
	Read(k pool.Key) ([]byte, error)
	Exists(k pool.Key) (bool, error)
	Insert(k pool.Key, data []byte) error
	Update(k pool.Key, data []byte) error
	Erase(k pool.Key) error
}

// action is the tracked modification kind for a state entry.
type action int

const (
	actionCache action = iota
	actionInsert
	actionModify
	actionErase
)

type trackedEntry struct {
	action   action
	original []byte
	current  []byte
}

// StateTable wraps a StateView and buffers every modification. Nothing
// reaches the base view until Commit; dropping the table discards all
// changes, which is what gives each operation its all-or-nothing
// semantics.
type StateTable struct {
	base  StateView
	items map[pool.Key]*trackedEntry
}

// NewStateTable creates a buffering view over base.
func NewStateTable(base StateView) *StateTable {
	return &StateTable{
		base:  base,
		items: make(map[pool.Key]*trackedEntry),
	}
}

// Read returns the entry's current (possibly buffered) value.
func (t *StateTable) Read(k pool.Key) ([]byte, error) {
	if e, ok := t.items[k]; ok {
		if e.action == actionErase {
			return nil, nil
		}
		return e.current, nil
	}
	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}
	if data != nil {
		t.items[k] = &trackedEntry{action: actionCache, original: data, current: data}
	}
	return data, nil
}

// Exists checks for the entry, honoring buffered inserts and erases.
func (t *StateTable) Exists(k pool.Key) (bool, error) {
	if e, ok := t.items[k]; ok {
		return e.action != actionErase, nil
	}
	return t.base.Exists(k)
}

// Insert buffers creation of a new entry.
func (t *StateTable) Insert(k pool.Key, data []byte) error {
	if e, ok := t.items[k]; ok {
		if e.action == actionErase {
			// Erase followed by insert within one operation is a modify.
			e.action = actionModify
			e.current = data
			return nil
		}
		return fmt.Errorf("op: insert over existing entry %x", k[:8])
	}
	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("op: insert over existing entry %x", k[:8])
	}
	t.items[k] = &trackedEntry{action: actionInsert, current: data}
	return nil
}

// Update buffers modification of an existing entry.
func (t *StateTable) Update(k pool.Key, data []byte) error {
	if e, ok := t.items[k]; ok {
		switch e.action {
		case actionErase:
			return errors.New("op: update of erased entry")
		case actionInsert:
			e.current = data
		default:
			e.action = actionModify
			e.current = data
		}
		return nil
	}
	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New("op: update of missing entry")
	}
	t.items[k] = &trackedEntry{action: actionModify, current: data}
	return nil
}

// Erase buffers deletion of an entry.
func (t *StateTable) Erase(k pool.Key) error {
	if e, ok := t.items[k]; ok {
		if e.action == actionInsert {
			delete(t.items, k)
			return nil
		}
		e.action = actionErase
		e.current = nil
		return nil
	}
	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New("op: erase of missing entry")
	}
	t.items[k] = &trackedEntry{action: actionErase}
	return nil
}

// Commit flushes every buffered change to the base view in one pass.
func (t *StateTable) Commit() error {
	for k, e := range t.items {
		var err error
		switch e.action {
		case actionInsert:
			err = t.base.Insert(k, e.current)
		case actionModify:
			err = t.base.Update(k, e.current)
		case actionErase:
			err = t.base.Erase(k)
		case actionCache:
			// Read-only access, nothing to write.
		}
		if err != nil {
			return fmt.Errorf("op: commit failed at %x: %w", k[:8], err)
		}
	}
	return nil
}

// Dirty reports whether the table holds uncommitted modifications.
func (t *StateTable) Dirty() bool {
	for _, e := range t.items {
		if e.action != actionCache {
			return true
		}
	}
	return false
}
