package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/core/state"
)

func tableKey(b byte) pool.Key {
	var k pool.Key
	k[0] = b
	return k
}

func TestStateTableBuffersUntilCommit(t *testing.T) {
	base := state.NewMemoryView()
	table := NewStateTable(base)

	k := tableKey(1)
	require.NoError(t, table.Insert(k, []byte("v1")))

	// Visible through the table, invisible in the base.
	data, err := table.Read(k)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	baseData, err := base.Read(k)
	require.NoError(t, err)
	assert.Nil(t, baseData)
	assert.True(t, table.Dirty())

	require.NoError(t, table.Commit())
	baseData, err = base.Read(k)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), baseData)
}

func TestStateTableDiscardOnDrop(t *testing.T) {
	base := state.NewMemoryView()
	require.NoError(t, base.Insert(tableKey(1), []byte("old")))

	table := NewStateTable(base)
	require.NoError(t, table.Update(tableKey(1), []byte("new")))
	require.NoError(t, table.Erase(tableKey(1)))

	// The table is simply dropped; the base keeps its original value.
	data, err := base.Read(tableKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)
}

func TestStateTableInsertOverExisting(t *testing.T) {
	base := state.NewMemoryView()
	require.NoError(t, base.Insert(tableKey(1), []byte("old")))

	table := NewStateTable(base)
	assert.Error(t, table.Insert(tableKey(1), []byte("dup")))
}

func TestStateTableUpdateMissing(t *testing.T) {
	table := NewStateTable(state.NewMemoryView())
	assert.Error(t, table.Update(tableKey(1), []byte("v")))
}

func TestStateTableEraseThenInsertIsModify(t *testing.T) {
	base := state.NewMemoryView()
	require.NoError(t, base.Insert(tableKey(1), []byte("old")))

	table := NewStateTable(base)
	require.NoError(t, table.Erase(tableKey(1)))

	data, err := table.Read(tableKey(1))
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, table.Insert(tableKey(1), []byte("new")))
	require.NoError(t, table.Commit())

	data, err = base.Read(tableKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestStateTableInsertThenEraseLeavesNoTrace(t *testing.T) {
	base := state.NewMemoryView()
	table := NewStateTable(base)

	require.NoError(t, table.Insert(tableKey(1), []byte("v")))
	require.NoError(t, table.Erase(tableKey(1)))
	assert.False(t, table.Dirty())

	require.NoError(t, table.Commit())
	assert.Zero(t, base.Len())
}

func TestStateTableExists(t *testing.T) {
	base := state.NewMemoryView()
	require.NoError(t, base.Insert(tableKey(1), []byte("v")))

	table := NewStateTable(base)
	ok, err := table.Exists(tableKey(1))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, table.Erase(tableKey(1)))
	ok, err = table.Exists(tableKey(1))
	require.NoError(t, err)
	assert.False(t, ok)
}
