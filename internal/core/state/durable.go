package state

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/storage/kv"
)

// DefaultCacheSize is the default entry count of the read-through cache.
const DefaultCacheSize = 16384

// DurableView is a StateView over a key-value store. Reads go through an
// LRU cache; writes update both the store and the cache so a committed
// operation is immediately visible to the next one.
type DurableView struct {
	db    kv.DB
	cache *lru.Cache[pool.Key, []byte]
}

// NewDurableView wraps a key-value store. cacheSize <= 0 selects
// DefaultCacheSize.
func NewDurableView(db kv.DB, cacheSize int) (*DurableView, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[pool.Key, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("state: cache setup: %w", err)
	}
	return &DurableView{db: db, cache: cache}, nil
}

// Read returns the stored value, or nil when the entry is absent.
func (v *DurableView) Read(k pool.Key) ([]byte, error) {
	if data, ok := v.cache.Get(k); ok {
		return data, nil
	}
	data, err := v.db.Read(context.Background(), k[:])
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.cache.Add(k, data)
	return data, nil
}

// Exists reports whether the entry is present.
func (v *DurableView) Exists(k pool.Key) (bool, error) {
	if v.cache.Contains(k) {
		return true, nil
	}
	data, err := v.Read(k)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// Insert stores a new entry.
func (v *DurableView) Insert(k pool.Key, data []byte) error {
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}
	if err := v.db.Write(context.Background(), k[:], data); err != nil {
		return err
	}
	v.cache.Add(k, data)
	return nil
}

// Update replaces an existing entry.
func (v *DurableView) Update(k pool.Key, data []byte) error {
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEntryMissing
	}
	if err := v.db.Write(context.Background(), k[:], data); err != nil {
		return err
	}
	v.cache.Add(k, data)
	return nil
}

// Erase removes an existing entry.
func (v *DurableView) Erase(k pool.Key) error {
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEntryMissing
	}
	if err := v.db.Delete(context.Background(), k[:]); err != nil {
		return err
	}
	v.cache.Remove(k)
	return nil
}
