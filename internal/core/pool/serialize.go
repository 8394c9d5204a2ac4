package pool

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// Fixed binary layouts, big-endian. The accumulator and debt fields are
// stored as 32-byte unsigned values; fee-per-share growth is bounded well
// below 2^256 for any realistic pool lifetime.
const (
	bigFieldSize = 32

	poolRecordSize     = 5*8 + 2*bigFieldSize
	positionRecordSize = 3*8 + 2*bigFieldSize
)

// Serialize encodes the pool record.
func (p *Pool) Serialize() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	data := make([]byte, poolRecordSize)
	off := 0
	for _, v := range []uint64{p.ReserveA, p.ReserveB, p.TotalShares, p.FeePotA, p.FeePotB} {
		binary.BigEndian.PutUint64(data[off:off+8], v)
		off += 8
	}
	if err := putBig(data[off:off+bigFieldSize], p.FeePerShareA); err != nil {
		return nil, err
	}
	off += bigFieldSize
	if err := putBig(data[off:off+bigFieldSize], p.FeePerShareB); err != nil {
		return nil, err
	}
	return data, nil
}

// ParsePool decodes a pool record.
func ParsePool(data []byte) (*Pool, error) {
	if len(data) != poolRecordSize {
		return nil, fmt.Errorf("pool: record is %d bytes, want %d", len(data), poolRecordSize)
	}
	p := NewPool()
	off := 0
	for _, dst := range []*uint64{&p.ReserveA, &p.ReserveB, &p.TotalShares, &p.FeePotA, &p.FeePotB} {
		*dst = binary.BigEndian.Uint64(data[off : off+8])
		off += 8
	}
	p.FeePerShareA.SetBytes(data[off : off+bigFieldSize])
	off += bigFieldSize
	p.FeePerShareB.SetBytes(data[off : off+bigFieldSize])
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Serialize encodes the position record.
func (pos *Position) Serialize() ([]byte, error) {
	data := make([]byte, positionRecordSize)
	off := 0
	for _, v := range []uint64{pos.Shares, pos.AccruedA, pos.AccruedB} {
		binary.BigEndian.PutUint64(data[off:off+8], v)
		off += 8
	}
	if err := putBig(data[off:off+bigFieldSize], pos.FeeDebtA); err != nil {
		return nil, err
	}
	off += bigFieldSize
	if err := putBig(data[off:off+bigFieldSize], pos.FeeDebtB); err != nil {
		return nil, err
	}
	return data, nil
}

// ParsePosition decodes a position record.
func ParsePosition(data []byte) (*Position, error) {
	if len(data) != positionRecordSize {
		return nil, fmt.Errorf("pool: position record is %d bytes, want %d", len(data), positionRecordSize)
	}
	pos := NewPosition()
	off := 0
	for _, dst := range []*uint64{&pos.Shares, &pos.AccruedA, &pos.AccruedB} {
		*dst = binary.BigEndian.Uint64(data[off : off+8])
		off += 8
	}
	pos.FeeDebtA.SetBytes(data[off : off+bigFieldSize])
	off += bigFieldSize
	pos.FeeDebtB.SetBytes(data[off : off+bigFieldSize])
	return pos, nil
}

func putBig(dst []byte, v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.BitLen() > bigFieldSize*8 {
		return fmt.Errorf("pool: accumulator value out of range")
	}
	v.FillBytes(dst)
	return nil
}
