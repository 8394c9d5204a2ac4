// Package pool holds the durable state of a constant-product liquidity
// pool: the two reserve balances, outstanding claim shares, and the
// per-share fee accumulators. All mutation goes through the primitives in
// reserves.go, shares.go and fees.go; nothing else may touch these fields.
package pool

import (
	"errors"
	"fmt"
	"math/big"
)

// Side identifies one of the pool's two assets.
type Side uint8

const (
	SideA Side = iota
	SideB
)

// String returns "A" or "B".
func (s Side) String() string {
	if s == SideA {
		return "A"
	}
	return "B"
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

var (
	ErrInsufficientReserves     = errors.New("pool: insufficient reserves")
	ErrDegenerateInitialDeposit = errors.New("pool: initial deposit must fund both assets")
	ErrInsufficientShares       = errors.New("pool: insufficient shares")
	ErrZeroLiquidityOut         = errors.New("pool: amount rounds to zero")
	ErrNothingToClaim           = errors.New("pool: no fees to claim")
)

// Pool is the singleton ledger record for the pair. Reserves hold only
// swap-eligible liquidity; accrued fees sit in the fee pots so that
// claiming them can never under-collateralize a reserve.
//
// Invariants: ReserveA > 0 and ReserveB > 0 whenever TotalShares > 0, and
// ReserveA*ReserveB never decreases across a swap.
type Pool struct {
	ReserveA    uint64
	ReserveB    uint64
	TotalShares uint64

	// FeePotA/B hold fees retained from swaps, per input asset.
	FeePotA uint64
	FeePotB uint64

	// FeePerShareA/B are cumulative fee-per-share accumulators, scaled by
	// fixedpoint.Scale. big.Int because fee*Scale exceeds 64 bits.
	FeePerShareA *big.Int
	FeePerShareB *big.Int
}

// NewPool returns an empty pool with zeroed accumulators.
func NewPool() *Pool {
	return &Pool{
		FeePerShareA: new(big.Int),
		FeePerShareB: new(big.Int),
	}
}

// Position is the per-participant ledger record. FeeDebtA/B snapshot the
// accumulator values already accounted for; AccruedA/B carry fees settled
// on share-balance changes but not yet transferred out.
type Position struct {
	Shares   uint64
	AccruedA uint64
	AccruedB uint64
	FeeDebtA *big.Int
	FeeDebtB *big.Int
}

// NewPosition returns an empty position with zeroed snapshots.
func NewPosition() *Position {
	return &Position{
		FeeDebtA: new(big.Int),
		FeeDebtB: new(big.Int),
	}
}

// Product returns ReserveA*ReserveB as a big.Int. The constant-product
// invariant is checked at this width since the product overflows uint64.
func (p *Pool) Product() *big.Int {
	return new(big.Int).Mul(
		new(big.Int).SetUint64(p.ReserveA),
		new(big.Int).SetUint64(p.ReserveB),
	)
}

// Active reports whether the pool has been funded. The transition from
// uninitialized to active happens once, on the first successful deposit,
// and is irreversible: a full withdrawal leaves an active pool with zero
// shares, ready to be re-seeded.
func (p *Pool) Active() bool {
	return p.TotalShares > 0
}

// Validate checks the structural invariants of the record.
func (p *Pool) Validate() error {
	if p.FeePerShareA == nil || p.FeePerShareB == nil {
		return errors.New("pool: nil fee accumulator")
	}
	if p.TotalShares > 0 && (p.ReserveA == 0 || p.ReserveB == 0) {
		return fmt.Errorf("pool: %d shares outstanding against empty reserve", p.TotalShares)
	}
	return nil
}
