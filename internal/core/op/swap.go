package op

import (
	"fmt"

	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/core/pricing"
)

func init() {
	Register(TypeSwap, func() Operation { return &Swap{} })
}

// Swap trades a fixed input amount of one asset against the pool for the
// other asset at the constant-product price.
type Swap struct {
	BaseOp

	Side         pool.Side `json:"side"`
	AmountIn     uint64    `json:"amount_in"`
	MinAmountOut uint64    `json:"min_amount_out"`
}

// Type returns the operation type.
func (s *Swap) Type() Type { return TypeSwap }

// Validate performs static checks.
func (s *Swap) Validate() error {
	if err := s.BaseOp.validate(); err != nil {
		return err
	}
	if s.Side != pool.SideA && s.Side != pool.SideB {
		return fmt.Errorf("unknown swap side %d", s.Side)
	}
	if s.AmountIn == 0 {
		return pricing.ErrZeroAmount
	}
	return nil
}

// Apply quotes the trade against the reserves as read, moves the fee
// into the fee pots, applies the reserve delta and stages both
// settlement legs. The output is derived only from the pre-read
// reserves, never from the caller's minimum.
func (s *Swap) Apply(ctx *ApplyContext) Result {
	p, existed, err := ctx.readPool()
	if err != nil {
		return resultFromError(err)
	}
	if !existed || !p.Active() {
		return ResultInsufficientLiquidity
	}

	sideIn := s.Side
	sideOut := sideIn.Other()
	q, err := pricing.QuoteOut(p.Reserve(sideIn), p.Reserve(sideOut), s.AmountIn, ctx.Params.FeeBps)
	if err != nil {
		return resultFromError(err)
	}
	if q.AmountOut == 0 {
		return ResultZeroLiquidityOut
	}
	if q.AmountOut < s.MinAmountOut {
		return ResultSlippageExceeded
	}

	if err := p.AccrueFee(sideIn, q.Fee); err != nil {
		return resultFromError(err)
	}
	if err := p.CreditReserve(sideIn, q.AmountInNet); err != nil {
		return resultFromError(err)
	}
	if err := p.DebitReserve(sideOut, q.AmountOut); err != nil {
		return resultFromError(err)
	}
	if err := ctx.writePool(p, true); err != nil {
		return resultFromError(err)
	}

	ctx.TransferIn(s.Account, ctx.Params.Asset(sideIn), s.AmountIn)
	ctx.TransferOut(s.Account, ctx.Params.Asset(sideOut), q.AmountOut)

	ctx.Outcome.AmountIn = s.AmountIn
	ctx.Outcome.AmountOut = q.AmountOut
	ctx.Outcome.Fee = q.Fee
	return ResultOK
}
