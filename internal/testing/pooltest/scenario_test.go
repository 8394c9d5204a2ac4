package pooltest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolworks/swapd/internal/core/op"
	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/oracle"
)

// The full lifecycle: deposit, swap, fee claim, withdraw, with the
// settlement ledger checked for conservation after every step.
func TestPoolLifecycle(t *testing.T) {
	env := NewEnv(t)
	env.Fund("alice", "TOKA", 10000)
	env.Fund("alice", "TOKB", 10000)
	env.Fund("bob", "TOKA", 1000)

	// Initial deposit seeds sqrt(1000*1000) = 1000 shares.
	res := env.RequireApplied(env.Deposit("alice", 1000, 1000))
	assert.Equal(t, uint64(1000), res.Outcome.SharesMinted)
	assert.Equal(t, uint64(9000), env.Balance("alice", "TOKA"))
	assert.Equal(t, uint64(9000), env.Balance("alice", "TOKB"))
	env.RequireConservation()

	// Swap 100 A at 30 bps: net 99, out = 99*1000/1099 = 90, fee 1.
	res = env.RequireApplied(env.Swap("bob", pool.SideA, 100, 90))
	assert.Equal(t, uint64(90), res.Outcome.AmountOut)
	assert.Equal(t, uint64(1), res.Outcome.Fee)
	assert.Equal(t, uint64(900), env.Balance("bob", "TOKA"))
	assert.Equal(t, uint64(90), env.Balance("bob", "TOKB"))

	info := env.Pool()
	assert.Equal(t, uint64(1099), info.ReserveA)
	assert.Equal(t, uint64(910), info.ReserveB)
	assert.Equal(t, uint64(1), info.FeePotA)
	env.RequireConservation()

	// The sole liquidity provider claims the whole fee pot.
	res = env.RequireApplied(env.ClaimFees("alice"))
	assert.Equal(t, uint64(1), res.Outcome.FeesClaimedA)
	assert.Equal(t, uint64(9001), env.Balance("alice", "TOKA"))
	env.RequireConservation()

	// Withdrawing half the shares pays half of each reserve, floored.
	res = env.RequireApplied(env.Withdraw("alice", 500))
	assert.Equal(t, uint64(549), res.Outcome.AmountAOut)
	assert.Equal(t, uint64(455), res.Outcome.AmountBOut)
	env.RequireConservation()

	info = env.Pool()
	assert.Equal(t, uint64(550), info.ReserveA)
	assert.Equal(t, uint64(455), info.ReserveB)
	assert.Equal(t, uint64(500), info.TotalShares)

	// Draining the rest empties the pool.
	env.RequireApplied(env.Withdraw("alice", 500))
	info = env.Pool()
	assert.Zero(t, info.TotalShares)
	assert.Zero(t, info.ReserveA)
	assert.Zero(t, info.ReserveB)
	env.RequireConservation()
}

func TestSlippageGuardLeavesEverythingUnchanged(t *testing.T) {
	env := NewEnv(t)
	env.Fund("alice", "TOKA", 2000)
	env.Fund("alice", "TOKB", 2000)
	env.Fund("bob", "TOKA", 1000)
	env.RequireApplied(env.Deposit("alice", 1000, 1000))

	env.RequireResult(op.ResultSlippageExceeded, env.Swap("bob", pool.SideA, 100, 91))

	info := env.Pool()
	assert.Equal(t, uint64(1000), info.ReserveA)
	assert.Equal(t, uint64(1000), info.ReserveB)
	assert.Equal(t, uint64(1000), env.Balance("bob", "TOKA"))
	env.RequireConservation()
}

func TestTransferFailureRollsBack(t *testing.T) {
	env := NewEnv(t)
	env.Fund("alice", "TOKA", 2000)
	env.Fund("alice", "TOKB", 2000)
	env.RequireApplied(env.Deposit("alice", 1000, 1000))

	// Bob holds nothing; the debit fails and the quote is rolled back.
	env.RequireResult(op.ResultTransferFailed, env.Swap("bob", pool.SideA, 100, 0))

	info := env.Pool()
	assert.Equal(t, uint64(1000), info.ReserveA)
	assert.Equal(t, uint64(1000), info.ReserveB)
	env.RequireConservation()
}

// A participant funded on one side only: the deposit fails as a whole
// and the funded side must still be theirs, not stuck in the holding
// account.
func TestPartiallyFundedDepositKeepsBalances(t *testing.T) {
	env := NewEnv(t)
	env.Fund("alice", "TOKA", 1000)

	env.RequireResult(op.ResultTransferFailed, env.Deposit("alice", 1000, 1000))

	assert.Equal(t, uint64(1000), env.Balance("alice", "TOKA"))
	assert.Zero(t, env.Balance(env.Ledger.HoldingAccount(), "TOKA"))
	assert.Zero(t, env.Pool().TotalShares)
	env.RequireConservation()
}

func TestOneSidedInitialDepositRejected(t *testing.T) {
	env := NewEnv(t)
	env.Fund("alice", "TOKA", 2000)

	env.RequireResult(op.ResultDegenerateInitialDeposit, env.Deposit("alice", 1000, 0))
	assert.Zero(t, env.Pool().TotalShares)
}

func TestExpiredOperationRejected(t *testing.T) {
	env := NewEnv(t)
	env.Fund("alice", "TOKA", 2000)
	env.Fund("alice", "TOKB", 2000)

	deadline := env.Clock.Now().Add(time.Minute)
	env.Clock.Advance(2 * time.Minute)

	res := env.Node.Submit(&op.Deposit{
		BaseOp:  op.BaseOp{Account: "alice", DeadlineAt: deadline},
		AmountA: 1000,
		AmountB: 1000,
	})
	require.Equal(t, op.ResultExpired, res.Result)
	assert.Equal(t, uint64(2000), env.Balance("alice", "TOKA"))
}

func TestProductNeverDecreasesAcrossSwaps(t *testing.T) {
	env := NewEnv(t)
	env.Fund("alice", "TOKA", 100000)
	env.Fund("alice", "TOKB", 100000)
	env.Fund("bob", "TOKA", 50000)
	env.Fund("bob", "TOKB", 50000)
	env.RequireApplied(env.Deposit("alice", 50000, 50000))

	last := env.Pool()
	prev := last.ReserveA * last.ReserveB

	swaps := []struct {
		side pool.Side
		in   uint64
	}{
		{pool.SideA, 1000}, {pool.SideB, 2500}, {pool.SideA, 17}, {pool.SideB, 999}, {pool.SideA, 31000},
	}
	for _, s := range swaps {
		env.RequireApplied(env.Swap("bob", s.side, s.in, 0))
		info := env.Pool()
		cur := info.ReserveA * info.ReserveB
		assert.GreaterOrEqual(t, cur, prev, "product decreased after swap of %d on side %v", s.in, s.side)
		prev = cur
		env.RequireConservation()
	}
}

func TestOracleValuedDeposit(t *testing.T) {
	env := NewEnv(t, WithOracle())
	env.Fund("alice", "TOKA", 2000)
	env.Fund("alice", "TOKB", 2000)
	env.Fund("bob", "TOKA", 300)
	env.Fund("bob", "TOKB", 100)

	env.RequireApplied(env.Deposit("alice", 1000, 1000))

	// One B is worth two A. Bob's deposit is worth 300 + 100*2 = 500
	// A-units against a pool worth 3000, so he gets 1000*500/3000 shares.
	env.SetPrice(2 * oracle.PriceScale)
	res := env.RequireApplied(env.Deposit("bob", 300, 100))
	assert.Equal(t, uint64(166), res.Outcome.SharesMinted)
	env.RequireConservation()
}

func TestOracleStalenessRejectsDeposit(t *testing.T) {
	env := NewEnv(t, WithOracle())
	env.Fund("alice", "TOKA", 2000)
	env.Fund("alice", "TOKB", 2000)
	env.Fund("bob", "TOKA", 300)
	env.Fund("bob", "TOKB", 100)

	env.RequireApplied(env.Deposit("alice", 1000, 1000))
	env.SetPrice(2 * oracle.PriceScale)

	// Let the observation age past the staleness bound.
	env.Clock.Advance(10 * time.Minute)
	env.RequireResult(op.ResultStaleOracleData, env.Deposit("bob", 300, 100))
	env.RequireConservation()
}

func TestDoubleClaimYieldsNothing(t *testing.T) {
	env := NewEnv(t)
	env.Fund("alice", "TOKA", 2000)
	env.Fund("alice", "TOKB", 2000)
	env.Fund("bob", "TOKA", 1000)
	env.RequireApplied(env.Deposit("alice", 1000, 1000))
	env.RequireApplied(env.Swap("bob", pool.SideA, 100, 0))

	env.RequireApplied(env.ClaimFees("alice"))
	env.RequireResult(op.ResultNothingToClaim, env.ClaimFees("alice"))
	env.RequireConservation()
}
