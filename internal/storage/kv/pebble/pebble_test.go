package pebble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolworks/swapd/internal/storage/kv"
)

func openTestDB(t *testing.T) *PebbleDB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReadWriteDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Read(ctx, []byte("missing"))
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, db.Delete(ctx, []byte("k")))
	_, err = db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
}

func TestBatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Write(ctx, []byte("stale"), []byte("x")))
	require.NoError(t, db.Batch(ctx, []kv.BatchOperation{
		{Type: kv.BatchPut, Key: []byte("a"), Value: []byte("1")},
		{Type: kv.BatchPut, Key: []byte("b"), Value: []byte("2")},
		{Type: kv.BatchDelete, Key: []byte("stale")},
	}))

	got, err := db.Read(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	_, err = db.Read(ctx, []byte("stale"))
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
}

func TestIteratorRange(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, k := range []string{"a1", "a2", "b1", "c1"} {
		require.NoError(t, db.Write(ctx, []byte(k), []byte(k)))
	}

	iter, err := db.Iterator(ctx, []byte("a"), []byte("b"))
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"a1", "a2"}, keys)
}

func TestClosedStore(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())

	_, err := db.Read(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, kv.ErrDBClosed)
	assert.ErrorIs(t, db.Write(context.Background(), []byte("k"), nil), kv.ErrDBClosed)
}
