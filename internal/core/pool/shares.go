package pool

import (
	"github.com/poolworks/swapd/internal/core/fixedpoint"
)

// MintShares issues claim shares for a two-sided deposit and updates the
// pool's and position's share balances. It does not move reserves; the
// caller credits them through CreditReserve so that all reserve mutation
// stays behind one primitive.
//
// The first deposit seeds TotalShares = floor(sqrt(amountA*amountB)),
// which fixes the pool's implied initial price. Later deposits are sized
// by the current reserve ratio, taking the smaller of the two
// proportional values so a mismatched deposit never mints more than the
// lesser side justifies.
func (p *Pool) MintShares(pos *Position, amountA, amountB uint64) (uint64, error) {
	var shares uint64

	if p.TotalShares == 0 {
		if amountA == 0 || amountB == 0 {
			return 0, ErrDegenerateInitialDeposit
		}
		shares = fixedpoint.SqrtProduct(amountA, amountB)
	} else {
		byA, err := fixedpoint.MulDiv(amountA, p.TotalShares, p.ReserveA)
		if err != nil {
			return 0, err
		}
		byB, err := fixedpoint.MulDiv(amountB, p.TotalShares, p.ReserveB)
		if err != nil {
			return 0, err
		}
		shares = byA
		if byB < shares {
			shares = byB
		}
	}

	if shares == 0 {
		return 0, ErrZeroLiquidityOut
	}

	// Pending fees must be settled before the share balance moves, or the
	// new shares would retroactively claim fees accrued before them.
	if err := p.settleFees(pos); err != nil {
		return 0, err
	}

	total, err := fixedpoint.Add(p.TotalShares, shares)
	if err != nil {
		return 0, err
	}
	held, err := fixedpoint.Add(pos.Shares, shares)
	if err != nil {
		return 0, err
	}
	p.TotalShares = total
	pos.Shares = held
	p.resetDebt(pos)

	return shares, nil
}

// MintExactShares issues an externally-sized share amount, used by the
// oracle valuation deposit mode where the issue is priced off-ledger.
// The same settle-then-move discipline as MintShares applies.
func (p *Pool) MintExactShares(pos *Position, shares uint64) error {
	if shares == 0 {
		return ErrZeroLiquidityOut
	}
	if err := p.settleFees(pos); err != nil {
		return err
	}
	total, err := fixedpoint.Add(p.TotalShares, shares)
	if err != nil {
		return err
	}
	held, err := fixedpoint.Add(pos.Shares, shares)
	if err != nil {
		return err
	}
	p.TotalShares = total
	pos.Shares = held
	p.resetDebt(pos)
	return nil
}

// BurnShares redeems shares for a proportional slice of both reserves and
// updates the share balances. The payouts are floor-rounded; a burn whose
// payout rounds to zero on either side fails with ErrZeroLiquidityOut so
// negligible burns cannot leak value out of the rounding.
func (p *Pool) BurnShares(pos *Position, shares uint64) (outA, outB uint64, err error) {
	if shares == 0 || shares > pos.Shares {
		return 0, 0, ErrInsufficientShares
	}

	outA, err = fixedpoint.MulDiv(shares, p.ReserveA, p.TotalShares)
	if err != nil {
		return 0, 0, err
	}
	outB, err = fixedpoint.MulDiv(shares, p.ReserveB, p.TotalShares)
	if err != nil {
		return 0, 0, err
	}
	if outA == 0 || outB == 0 {
		return 0, 0, ErrZeroLiquidityOut
	}

	if err := p.settleFees(pos); err != nil {
		return 0, 0, err
	}

	p.TotalShares -= shares
	pos.Shares -= shares
	p.resetDebt(pos)

	return outA, outB, nil
}
