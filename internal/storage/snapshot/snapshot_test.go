package snapshot

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolworks/swapd/internal/storage/kv/leveldb"
)

func TestExportImportRoundTrip(t *testing.T) {
	for _, compressor := range []string{"none", "lz4"} {
		t.Run(compressor, func(t *testing.T) {
			ctx := context.Background()
			src, err := leveldb.OpenMemory()
			require.NoError(t, err)
			defer src.Close()

			entries := map[string]string{
				"pool:XRP/USD":      "reserves",
				"position:alice":    "shares",
				"position:bob":      "shares2",
				"journal:000000001": "deposit",
			}
			for k, v := range entries {
				require.NoError(t, src.Write(ctx, []byte(k), []byte(v)))
			}

			var blob bytes.Buffer
			require.NoError(t, Export(ctx, src, &blob, compressor))

			dst, err := leveldb.OpenMemory()
			require.NoError(t, err)
			defer dst.Close()
			require.NoError(t, Import(ctx, dst, &blob))

			for k, v := range entries {
				got, err := dst.Read(ctx, []byte(k))
				require.NoError(t, err)
				assert.Equal(t, []byte(v), got)
			}
		})
	}
}

func TestImportRejectsNonEmptyTarget(t *testing.T) {
	ctx := context.Background()
	src, err := leveldb.OpenMemory()
	require.NoError(t, err)
	defer src.Close()
	require.NoError(t, src.Write(ctx, []byte("k"), []byte("v")))

	var blob bytes.Buffer
	require.NoError(t, Export(ctx, src, &blob, "none"))

	dst, err := leveldb.OpenMemory()
	require.NoError(t, err)
	defer dst.Close()
	require.NoError(t, dst.Write(ctx, []byte("existing"), []byte("v")))

	assert.ErrorIs(t, Import(ctx, dst, &blob), ErrNotEmpty)
}

func TestImportRejectsGarbage(t *testing.T) {
	dst, err := leveldb.OpenMemory()
	require.NoError(t, err)
	defer dst.Close()

	err = Import(context.Background(), dst, bytes.NewReader([]byte("not a snapshot")))
	assert.ErrorIs(t, err, ErrBadSnapshot)
}

func TestUnknownCompressor(t *testing.T) {
	src, err := leveldb.OpenMemory()
	require.NoError(t, err)
	defer src.Close()

	var blob bytes.Buffer
	assert.Error(t, Export(context.Background(), src, &blob, "zstd"))
}
