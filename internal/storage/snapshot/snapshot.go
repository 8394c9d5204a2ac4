package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/poolworks/swapd/internal/storage/kv"
)

// Snapshot layout, all integers big-endian:
//
//	magic        uint32
//	version      uint8
//	nameLen      uint8, compressor name bytes
//	rawSize      uint32 (uncompressed payload size)
//	payloadLen   uint32, compressed payload bytes
//
// The payload is a sequence of entries, each keyLen uint16, key,
// valueLen uint32, value.
const (
	snapshotMagic   = 0x53574150 // "SWAP"
	snapshotVersion = 1
)

var (
	// ErrBadSnapshot is returned for a corrupt or truncated snapshot.
	ErrBadSnapshot = errors.New("snapshot: malformed snapshot")

	// ErrNotEmpty is returned when restoring into a store that already
	// holds entries.
	ErrNotEmpty = errors.New("snapshot: target store is not empty")
)

// Export walks every entry of the store and writes one snapshot blob.
func Export(ctx context.Context, db kv.DB, w io.Writer, compressorName string) error {
	compressor, err := GetCompressor(compressorName)
	if err != nil {
		return err
	}

	iter, err := db.Iterator(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	var payload bytes.Buffer
	for iter.Next() {
		key, value := iter.Key(), iter.Value()
		if len(key) > 0xFFFF {
			return fmt.Errorf("snapshot: key too large (%d bytes)", len(key))
		}
		var kl [2]byte
		binary.BigEndian.PutUint16(kl[:], uint16(len(key)))
		payload.Write(kl[:])
		payload.Write(key)
		var vl [4]byte
		binary.BigEndian.PutUint32(vl[:], uint32(len(value)))
		payload.Write(vl[:])
		payload.Write(value)
	}
	if err := iter.Error(); err != nil {
		return err
	}

	compressed, err := compressor.Compress(payload.Bytes())
	if err != nil {
		return err
	}

	var header bytes.Buffer
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], snapshotMagic)
	header.Write(u32[:])
	header.WriteByte(snapshotVersion)
	header.WriteByte(byte(len(compressor.Name())))
	header.WriteString(compressor.Name())
	binary.BigEndian.PutUint32(u32[:], uint32(payload.Len()))
	header.Write(u32[:])
	binary.BigEndian.PutUint32(u32[:], uint32(len(compressed)))
	header.Write(u32[:])

	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err = w.Write(compressed)
	return err
}

// Import restores a snapshot blob into an empty store.
func Import(ctx context.Context, db kv.DB, r io.Reader) error {
	iter, err := db.Iterator(ctx, nil, nil)
	if err != nil {
		return err
	}
	hasEntries := iter.Next()
	iterErr := iter.Error()
	if err := iter.Close(); err != nil {
		return err
	}
	if iterErr != nil {
		return iterErr
	}
	if hasEntries {
		return ErrNotEmpty
	}

	payload, err := readPayload(r)
	if err != nil {
		return err
	}

	var ops []kv.BatchOperation
	for len(payload) > 0 {
		if len(payload) < 2 {
			return ErrBadSnapshot
		}
		keyLen := int(binary.BigEndian.Uint16(payload))
		payload = payload[2:]
		if len(payload) < keyLen+4 {
			return ErrBadSnapshot
		}
		key := payload[:keyLen]
		payload = payload[keyLen:]
		valueLen := int(binary.BigEndian.Uint32(payload))
		payload = payload[4:]
		if len(payload) < valueLen {
			return ErrBadSnapshot
		}
		value := payload[:valueLen]
		payload = payload[valueLen:]

		ops = append(ops, kv.BatchOperation{
			Type:  kv.BatchPut,
			Key:   append([]byte(nil), key...),
			Value: append([]byte(nil), value...),
		})
	}
	if len(ops) == 0 {
		return nil
	}
	return db.Batch(ctx, ops)
}

func readPayload(r io.Reader) ([]byte, error) {
	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, ErrBadSnapshot
	}
	if binary.BigEndian.Uint32(u32[:]) != snapshotMagic {
		return nil, ErrBadSnapshot
	}

	var u8 [1]byte
	if _, err := io.ReadFull(r, u8[:]); err != nil {
		return nil, ErrBadSnapshot
	}
	if u8[0] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, u8[0])
	}

	if _, err := io.ReadFull(r, u8[:]); err != nil {
		return nil, ErrBadSnapshot
	}
	name := make([]byte, u8[0])
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, ErrBadSnapshot
	}
	compressor, err := GetCompressor(string(name))
	if err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, ErrBadSnapshot
	}
	rawSize := int(binary.BigEndian.Uint32(u32[:]))
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, ErrBadSnapshot
	}
	compressed := make([]byte, binary.BigEndian.Uint32(u32[:]))
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, ErrBadSnapshot
	}

	return compressor.Decompress(compressed, rawSize)
}
