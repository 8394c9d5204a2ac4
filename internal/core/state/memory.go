// Package state provides durable StateView implementations for the
// operation engine: an in-memory map view and a key-value-store-backed
// view with a read-through cache.
package state

import (
	"errors"
	"sync"

	"github.com/poolworks/swapd/internal/core/pool"
)

var (
	// ErrEntryExists is returned by Insert over a live entry.
	ErrEntryExists = errors.New("state: entry already exists")

	// ErrEntryMissing is returned by Update or Erase of an absent entry.
	ErrEntryMissing = errors.New("state: entry does not exist")
)

// MemoryView is a map-backed StateView. Safe for concurrent use.
type MemoryView struct {
	mu      sync.RWMutex
	entries map[pool.Key][]byte
}

// NewMemoryView creates an empty in-memory view.
func NewMemoryView() *MemoryView {
	return &MemoryView{entries: make(map[pool.Key][]byte)}
}

// Read returns the stored value, or nil when the entry is absent.
func (v *MemoryView) Read(k pool.Key) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	data, ok := v.entries[k]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Exists reports whether the entry is present.
func (v *MemoryView) Exists(k pool.Key) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.entries[k]
	return ok, nil
}

// Insert stores a new entry.
func (v *MemoryView) Insert(k pool.Key, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[k]; ok {
		return ErrEntryExists
	}
	v.entries[k] = append([]byte(nil), data...)
	return nil
}

// Update replaces an existing entry.
func (v *MemoryView) Update(k pool.Key, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[k]; !ok {
		return ErrEntryMissing
	}
	v.entries[k] = append([]byte(nil), data...)
	return nil
}

// Erase removes an existing entry.
func (v *MemoryView) Erase(k pool.Key) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[k]; !ok {
		return ErrEntryMissing
	}
	delete(v.entries, k)
	return nil
}

// Len returns the number of live entries.
func (v *MemoryView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}
