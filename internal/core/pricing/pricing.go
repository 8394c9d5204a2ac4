// Package pricing computes constant-product swap quotes. It is pure math
// over a snapshot of the reserves; it never mutates pool state.
package pricing

import (
	"errors"

	"github.com/poolworks/swapd/internal/core/fixedpoint"
)

const (
	// BasisPointDenom is the fee denominator: 10000 bps = 100%.
	BasisPointDenom = 10000

	// MaxFeeBps caps the trading fee at 10%.
	MaxFeeBps = 1000
)

var (
	ErrInsufficientLiquidity = errors.New("pricing: insufficient liquidity")
	ErrBadFee                = errors.New("pricing: fee out of range")
	ErrZeroAmount            = errors.New("pricing: zero amount")
)

// Quote is an ephemeral swap quote. Fee is the portion of AmountIn
// retained for share-holders; AmountInNet is what actually trades against
// the reserves.
type Quote struct {
	AmountIn    uint64
	AmountInNet uint64
	AmountOut   uint64
	Fee         uint64
}

// QuoteOut prices a swap of amountIn against (reserveIn, reserveOut) with
// the fee taken from the input side:
//
//	amountInNet = amountIn * (10000 - feeBps) / 10000
//	amountOut   = amountInNet * reserveOut / (reserveIn + amountInNet)
//
// Both divisions floor, so the rounding error always lands in the pool's
// favor and the reserve product never decreases across the trade.
func QuoteOut(reserveIn, reserveOut, amountIn uint64, feeBps uint16) (Quote, error) {
	if feeBps > MaxFeeBps {
		return Quote{}, ErrBadFee
	}
	if reserveIn == 0 || reserveOut == 0 {
		return Quote{}, ErrInsufficientLiquidity
	}
	if amountIn == 0 {
		return Quote{}, ErrZeroAmount
	}

	net, err := fixedpoint.MulDiv(amountIn, uint64(BasisPointDenom-feeBps), BasisPointDenom)
	if err != nil {
		return Quote{}, err
	}
	denom, err := fixedpoint.Add(reserveIn, net)
	if err != nil {
		return Quote{}, err
	}
	out, err := fixedpoint.MulDiv(net, reserveOut, denom)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		AmountIn:    amountIn,
		AmountInNet: net,
		AmountOut:   out,
		Fee:         amountIn - net,
	}, nil
}

// QuoteIn answers the reverse question: the smallest amountIn whose quote
// delivers at least amountOut. Derived by inverting the QuoteOut formula
// with ceiling rounding at each step, then re-quoting to absorb the floor
// interplay between the fee and output divisions.
func QuoteIn(reserveIn, reserveOut, amountOut uint64, feeBps uint16) (Quote, error) {
	if feeBps > MaxFeeBps {
		return Quote{}, ErrBadFee
	}
	if reserveIn == 0 || reserveOut == 0 {
		return Quote{}, ErrInsufficientLiquidity
	}
	if amountOut == 0 {
		return Quote{}, ErrZeroAmount
	}
	if amountOut >= reserveOut {
		// The curve is asymptotic: no finite input drains the out reserve.
		return Quote{}, ErrInsufficientLiquidity
	}

	// net >= amountOut*reserveIn / (reserveOut-amountOut), rounded up.
	net, err := fixedpoint.MulDivCeil(amountOut, reserveIn, reserveOut-amountOut)
	if err != nil {
		return Quote{}, err
	}
	// Undo the fee with ceiling rounding.
	in, err := fixedpoint.MulDivCeil(net, BasisPointDenom, uint64(BasisPointDenom-feeBps))
	if err != nil {
		return Quote{}, err
	}

	// Floor rounding inside QuoteOut can still leave the result one unit
	// short; bump until the forward quote covers the request.
	for {
		q, err := QuoteOut(reserveIn, reserveOut, in, feeBps)
		if err != nil {
			return Quote{}, err
		}
		if q.AmountOut >= amountOut {
			return q, nil
		}
		in, err = fixedpoint.Add(in, 1)
		if err != nil {
			return Quote{}, err
		}
	}
}
