package pool

import (
	"math/big"

	"github.com/poolworks/swapd/internal/core/fixedpoint"
)

// AccrueFee retains a swap fee for the share-holders. The amount moves
// into the side's fee pot and the per-share accumulator advances by
// amount*Scale/TotalShares. O(1) regardless of participant count: each
// position settles against the accumulator lazily via its debt snapshot.
func (p *Pool) AccrueFee(s Side, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if p.TotalShares == 0 {
		// A fee can only come from a swap, and swaps require liquidity.
		return ErrInsufficientReserves
	}

	delta, err := fixedpoint.MulDivBig(
		new(big.Int).SetUint64(amount),
		fixedpoint.Scale,
		new(big.Int).SetUint64(p.TotalShares),
	)
	if err != nil {
		return err
	}

	if s == SideA {
		pot, err := fixedpoint.Add(p.FeePotA, amount)
		if err != nil {
			return err
		}
		p.FeePotA = pot
		p.FeePerShareA.Add(p.FeePerShareA, delta)
	} else {
		pot, err := fixedpoint.Add(p.FeePotB, amount)
		if err != nil {
			return err
		}
		p.FeePotB = pot
		p.FeePerShareB.Add(p.FeePerShareB, delta)
	}
	return nil
}

// PendingFees returns the fees a position could claim right now: the
// already-settled accrual plus shares*(accumulator-debt)/Scale.
func (p *Pool) PendingFees(pos *Position) (a, b uint64, err error) {
	pendA, err := pendingSide(pos.Shares, p.FeePerShareA, pos.FeeDebtA)
	if err != nil {
		return 0, 0, err
	}
	pendB, err := pendingSide(pos.Shares, p.FeePerShareB, pos.FeeDebtB)
	if err != nil {
		return 0, 0, err
	}
	a, err = fixedpoint.Add(pos.AccruedA, pendA)
	if err != nil {
		return 0, 0, err
	}
	b, err = fixedpoint.Add(pos.AccruedB, pendB)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// ClaimFees settles and zeroes a position's claimable fees, debiting the
// fee pots. It fails with ErrNothingToClaim when there is nothing owed;
// the caller is responsible for actually transferring the amounts out.
func (p *Pool) ClaimFees(pos *Position) (a, b uint64, err error) {
	if err := p.settleFees(pos); err != nil {
		return 0, 0, err
	}
	a, b = pos.AccruedA, pos.AccruedB
	if a == 0 && b == 0 {
		return 0, 0, ErrNothingToClaim
	}

	potA, err := fixedpoint.Sub(p.FeePotA, a)
	if err != nil {
		return 0, 0, err
	}
	potB, err := fixedpoint.Sub(p.FeePotB, b)
	if err != nil {
		return 0, 0, err
	}
	p.FeePotA, p.FeePotB = potA, potB
	pos.AccruedA, pos.AccruedB = 0, 0
	return a, b, nil
}

// settleFees folds the position's pending accumulator delta into its
// stored accrual and refreshes the debt snapshots. Must run before any
// change to the position's share balance.
func (p *Pool) settleFees(pos *Position) error {
	pendA, err := pendingSide(pos.Shares, p.FeePerShareA, pos.FeeDebtA)
	if err != nil {
		return err
	}
	pendB, err := pendingSide(pos.Shares, p.FeePerShareB, pos.FeeDebtB)
	if err != nil {
		return err
	}
	accA, err := fixedpoint.Add(pos.AccruedA, pendA)
	if err != nil {
		return err
	}
	accB, err := fixedpoint.Add(pos.AccruedB, pendB)
	if err != nil {
		return err
	}
	pos.AccruedA, pos.AccruedB = accA, accB
	p.resetDebt(pos)
	return nil
}

// resetDebt records the current accumulator values as already accounted
// for at the position's present share balance.
func (p *Pool) resetDebt(pos *Position) {
	pos.FeeDebtA.Set(p.FeePerShareA)
	pos.FeeDebtB.Set(p.FeePerShareB)
}

func pendingSide(shares uint64, acc, debt *big.Int) (uint64, error) {
	if shares == 0 {
		return 0, nil
	}
	delta := new(big.Int).Sub(acc, debt)
	if delta.Sign() <= 0 {
		return 0, nil
	}
	owed, err := fixedpoint.MulDivBig(new(big.Int).SetUint64(shares), delta, fixedpoint.Scale)
	if err != nil {
		return 0, err
	}
	return fixedpoint.BigUint64(owed)
}
