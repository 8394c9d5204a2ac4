package op

import (
	"errors"

	"github.com/poolworks/swapd/internal/core/fixedpoint"
	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/oracle"
)

// oraclePriceScale aliases the feed's fixed-point denominator.
const oraclePriceScale = oracle.PriceScale

var errNoValuer = errors.New("op: oracle valuation enabled without an adapter")

func init() {
	Register(TypeDeposit, func() Operation { return &Deposit{} })
}

// Deposit adds two-sided liquidity and mints claim shares. The amounts
// are taken as supplied: the controller does not rebalance them, and a
// deposit out of ratio with the current reserves mints only what the
// lesser side justifies.
type Deposit struct {
	BaseOp

	AmountA uint64 `json:"amount_a"`
	AmountB uint64 `json:"amount_b"`
}

// Type returns the operation type.
func (d *Deposit) Type() Type { return TypeDeposit }

// Validate performs static checks.
func (d *Deposit) Validate() error {
	if err := d.BaseOp.validate(); err != nil {
		return err
	}
	if d.AmountA == 0 || d.AmountB == 0 {
		return pool.ErrDegenerateInitialDeposit
	}
	return nil
}

// Apply sizes the share issue, credits both reserves, mints, then stages
// both inbound legs for settlement. All state changes are buffered; a
// failed settlement discards them.
func (d *Deposit) Apply(ctx *ApplyContext) Result {
	p, existed, err := ctx.readPool()
	if err != nil {
		return resultFromError(err)
	}
	pos, posExisted, err := ctx.readPosition(d.Account)
	if err != nil {
		return resultFromError(err)
	}

	var minted uint64
	if ctx.Params.OracleValuation && p.Active() {
		minted, err = d.mintValued(ctx, p, pos)
	} else {
		minted, err = p.MintShares(pos, d.AmountA, d.AmountB)
	}
	if err != nil {
		return resultFromError(err)
	}

	if err := p.CreditReserve(pool.SideA, d.AmountA); err != nil {
		return resultFromError(err)
	}
	if err := p.CreditReserve(pool.SideB, d.AmountB); err != nil {
		return resultFromError(err)
	}

	if err := ctx.writePool(p, existed); err != nil {
		return resultFromError(err)
	}
	if err := ctx.writePosition(d.Account, pos, posExisted); err != nil {
		return resultFromError(err)
	}

	ctx.TransferIn(d.Account, ctx.Params.AssetA, d.AmountA)
	ctx.TransferIn(d.Account, ctx.Params.AssetB, d.AmountB)

	ctx.Outcome.SharesMinted = minted
	ctx.Outcome.AmountAIn = d.AmountA
	ctx.Outcome.AmountBIn = d.AmountB
	return ResultOK
}

// mintValued sizes the share issue from the oracle's smoothed price
// instead of the reserve ratio: the deposit's value and the pool's value
// are both expressed in asset-A units and shares are issued pro rata.
func (d *Deposit) mintValued(ctx *ApplyContext, p *pool.Pool, pos *pool.Position) (uint64, error) {
	if ctx.Valuation == nil {
		return 0, errNoValuer
	}
	ratio, err := ctx.Valuation.ValuationRatio()
	if err != nil {
		return 0, err
	}

	depositValue, err := valueInA(d.AmountA, d.AmountB, ratio)
	if err != nil {
		return 0, err
	}
	poolValue, err := valueInA(p.ReserveA, p.ReserveB, ratio)
	if err != nil {
		return 0, err
	}
	shares, err := fixedpoint.MulDiv(depositValue, p.TotalShares, poolValue)
	if err != nil {
		return 0, err
	}
	return shares, p.MintExactShares(pos, shares)
}

// valueInA prices an (A, B) pair in asset-A units at the given
// B-per-A ratio.
func valueInA(amountA, amountB, ratio uint64) (uint64, error) {
	bValue, err := fixedpoint.MulDiv(amountB, ratio, oraclePriceScale)
	if err != nil {
		return 0, err
	}
	return fixedpoint.Add(amountA, bValue)
}
