package pool

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// State-key namespaces. Each record type hashes under its own space so
// keys for different kinds of entries can never collide.
const (
	spacePool     uint16 = 'p'
	spacePosition uint16 = 'l'
)

// Key is a 256-bit state-store key.
type Key [32]byte

func indexHash(space uint16, data ...[]byte) Key {
	h := sha256.New()
	var spaceBytes [2]byte
	binary.BigEndian.PutUint16(spaceBytes[:], space)
	h.Write(spaceBytes[:])
	for _, d := range data {
		h.Write(d)
	}
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// PoolKey returns the state key for the pool record of an asset pair.
// The pair is canonicalized so (A,B) and (B,A) address the same pool.
func PoolKey(assetA, assetB string) Key {
	a, b := canonicalPair(assetA, assetB)
	return indexHash(spacePool, []byte(a), []byte{0}, []byte(b))
}

// PositionKey returns the state key for a participant's position in a pool.
func PositionKey(poolKey Key, participant string) Key {
	return indexHash(spacePosition, poolKey[:], []byte(participant))
}

// AccountID derives the pool's 20-byte pseudo-account identifier from the
// asset pair, RIPEMD160 over SHA-256 in the usual address-derivation
// fashion. The transfer layer uses it as the pool's holding account.
func AccountID(assetA, assetB string) [20]byte {
	k := PoolKey(assetA, assetB)
	outer := ripemd160.New()
	outer.Write(k[:])
	var id [20]byte
	copy(id[:], outer.Sum(nil))
	return id
}

func canonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
