package op

import (
	"fmt"

	"github.com/poolworks/swapd/internal/core/pool"
)

func init() {
	Register(TypeWithdraw, func() Operation { return &Withdraw{} })
}

// Withdraw burns claim shares for a proportional slice of both reserves.
type Withdraw struct {
	BaseOp

	Shares uint64 `json:"shares"`
}

// Type returns the operation type.
func (w *Withdraw) Type() Type { return TypeWithdraw }

// Validate performs static checks.
func (w *Withdraw) Validate() error {
	if err := w.BaseOp.validate(); err != nil {
		return err
	}
	if w.Shares == 0 {
		return fmt.Errorf("withdraw of zero shares: %w", pool.ErrInsufficientShares)
	}
	return nil
}

// Apply burns the shares, debits both reserves, and stages the two
// outbound legs paying the participant.
func (w *Withdraw) Apply(ctx *ApplyContext) Result {
	p, existed, err := ctx.readPool()
	if err != nil {
		return resultFromError(err)
	}
	if !existed {
		return ResultInsufficientShares
	}
	pos, posExisted, err := ctx.readPosition(w.Account)
	if err != nil {
		return resultFromError(err)
	}
	if !posExisted {
		return ResultInsufficientShares
	}

	outA, outB, err := p.BurnShares(pos, w.Shares)
	if err != nil {
		return resultFromError(err)
	}
	if err := p.DebitReserve(pool.SideA, outA); err != nil {
		return resultFromError(err)
	}
	if err := p.DebitReserve(pool.SideB, outB); err != nil {
		return resultFromError(err)
	}

	if err := ctx.writePool(p, true); err != nil {
		return resultFromError(err)
	}
	if err := ctx.writePosition(w.Account, pos, true); err != nil {
		return resultFromError(err)
	}

	ctx.TransferOut(w.Account, ctx.Params.AssetA, outA)
	ctx.TransferOut(w.Account, ctx.Params.AssetB, outB)

	ctx.Outcome.SharesBurned = w.Shares
	ctx.Outcome.AmountAOut = outA
	ctx.Outcome.AmountBOut = outB
	return ResultOK
}
