package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/storage/kv/leveldb"
)

func stateKey(b byte) pool.Key {
	var k pool.Key
	k[0] = b
	return k
}

type view interface {
	Read(pool.Key) ([]byte, error)
	Exists(pool.Key) (bool, error)
	Insert(pool.Key, []byte) error
	Update(pool.Key, []byte) error
	Erase(pool.Key) error
}

// views returns both implementations so every case runs against each.
func views(t *testing.T) map[string]view {
	t.Helper()
	db, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	durable, err := NewDurableView(db, 8)
	require.NoError(t, err)

	return map[string]view{
		"memory":  NewMemoryView(),
		"durable": durable,
	}
}

func TestViewLifecycle(t *testing.T) {
	for name, v := range views(t) {
		t.Run(name, func(t *testing.T) {
			k := stateKey(1)

			data, err := v.Read(k)
			require.NoError(t, err)
			assert.Nil(t, data)

			ok, err := v.Exists(k)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, v.Insert(k, []byte("v1")))
			assert.ErrorIs(t, v.Insert(k, []byte("dup")), ErrEntryExists)

			data, err = v.Read(k)
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), data)

			require.NoError(t, v.Update(k, []byte("v2")))
			data, err = v.Read(k)
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), data)

			require.NoError(t, v.Erase(k))
			assert.ErrorIs(t, v.Erase(k), ErrEntryMissing)
			assert.ErrorIs(t, v.Update(k, []byte("v3")), ErrEntryMissing)

			data, err = v.Read(k)
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestDurableViewSurvivesCacheEviction(t *testing.T) {
	db, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// A two-entry cache forces evictions across the writes below.
	v, err := NewDurableView(db, 2)
	require.NoError(t, err)

	for i := byte(0); i < 10; i++ {
		require.NoError(t, v.Insert(stateKey(i), []byte{i}))
	}
	for i := byte(0); i < 10; i++ {
		data, err := v.Read(stateKey(i))
		require.NoError(t, err)
		assert.Equal(t, []byte{i}, data)
	}
}
