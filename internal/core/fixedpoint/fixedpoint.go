// Package fixedpoint provides the overflow-checked integer arithmetic used
// by every ledger component. All reserve and share math routes through
// MulDiv so that intermediate products are computed at 128-bit width; a
// native multiply-then-divide silently truncates exactly in the cases that
// matter most (large reserves, small shares).
package fixedpoint

import (
	"errors"
	"math/big"
	"math/bits"
)

var (
	// ErrOverflow indicates the true result does not fit in 64 bits.
	ErrOverflow = errors.New("fixedpoint: arithmetic overflow")

	// ErrDivideByZero indicates a zero denominator.
	ErrDivideByZero = errors.New("fixedpoint: division by zero")
)

// Scale is the precision factor for per-share fee accumulators.
// Accumulator values are big.Int because fee * Scale exceeds 64 bits for
// realistic fee amounts.
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// MulDiv computes floor(a*b/den) with a 128-bit intermediate product.
// It returns ErrDivideByZero when den == 0 and ErrOverflow when the
// quotient does not fit in 64 bits.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(a, b)
	// bits.Div64 panics when the quotient overflows (hi >= den), so guard
	// explicitly.
	if hi >= den {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}

// MulDivCeil computes ceil(a*b/den) with a 128-bit intermediate product.
func MulDivCeil(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrOverflow
	}
	q, rem := bits.Div64(hi, lo, den)
	if rem == 0 {
		return q, nil
	}
	return Add(q, 1)
}

// Add returns a+b, failing with ErrOverflow on wraparound.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b, failing with ErrOverflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrOverflow
	}
	return diff, nil
}

// Mul returns a*b, failing with ErrOverflow when the product exceeds 64 bits.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// Sqrt returns floor(sqrt(x)) using Newton iteration on integers.
func Sqrt(x uint64) uint64 {
	if x < 2 {
		return x
	}
	// Initial guess: 2^ceil(bits/2) is always >= sqrt(x).
	r := uint64(1) << ((bits.Len64(x) + 1) / 2)
	for {
		next := (r + x/r) / 2
		if next >= r {
			return r
		}
		r = next
	}
}

// SqrtProduct returns floor(sqrt(a*b)) without overflowing the 64-bit
// multiply. Used to seed the initial share issue.
func SqrtProduct(a, b uint64) uint64 {
	p := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	return p.Sqrt(p).Uint64()
}

// MulDivBig computes floor(a*b/den) over big.Int into a fresh value.
// Inputs are not modified.
func MulDivBig(a, b, den *big.Int) (*big.Int, error) {
	if den.Sign() == 0 {
		return nil, ErrDivideByZero
	}
	r := new(big.Int).Mul(a, b)
	return r.Quo(r, den), nil
}

// BigUint64 converts v to uint64, failing with ErrOverflow when v is
// negative or exceeds 64 bits.
func BigUint64(v *big.Int) (uint64, error) {
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}
