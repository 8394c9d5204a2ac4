// Package pooltest provides a full-stack test environment: a real kv
// store, the balance-book settlement ledger, the engine and the node,
// with helpers for funding accounts and submitting operations.
package pooltest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poolworks/swapd/internal/core/op"
	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/core/state"
	"github.com/poolworks/swapd/internal/ledger"
	"github.com/poolworks/swapd/internal/node"
	"github.com/poolworks/swapd/internal/oracle"
	"github.com/poolworks/swapd/internal/rpc"
	"github.com/poolworks/swapd/internal/storage/kv/leveldb"
)

// Env wires the whole daemon stack over an in-memory store.
type Env struct {
	t *testing.T

	Clock  *ManualClock
	Ledger *ledger.Ledger
	Engine *op.Engine
	Node   *node.Node

	// Price is the manual oracle source, set when the env was built
	// with WithOracle.
	Price *oracle.ManualSource

	adapter *oracle.Adapter
}

// Option configures an Env.
type Option func(*envConfig)

type envConfig struct {
	params op.Params
	oracle bool
}

// WithFee overrides the default 30 bps swap fee.
func WithFee(bps uint16) Option {
	return func(c *envConfig) { c.params.FeeBps = bps }
}

// WithOracle enables oracle-valued deposits with a manual price source.
func WithOracle() Option {
	return func(c *envConfig) {
		c.oracle = true
		c.params.OracleValuation = true
	}
}

// NewEnv builds an environment for a TOKA/TOKB pool.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	cfg := envConfig{
		params: op.Params{AssetA: "TOKA", AssetB: "TOKB", FeeBps: 30},
	}
	for _, o := range opts {
		o(&cfg)
	}

	db, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	view, err := state.NewDurableView(db, 128)
	require.NoError(t, err)

	book := ledger.New(db, cfg.params.AssetA, cfg.params.AssetB)
	clock := NewManualClock()

	engineOpts := []op.Option{op.WithClock(clock.Now)}
	env := &Env{t: t, Clock: clock, Ledger: book}
	if cfg.oracle {
		env.Price = oracle.NewManualSource()
		env.Price.SetClock(clock.Now)
		adapter := oracle.NewAdapter(env.Price, time.Minute, 5*time.Minute)
		adapter.SetClock(clock.Now)
		engineOpts = append(engineOpts, op.WithValuation(adapter))
		env.adapter = adapter
	}

	env.Engine = op.NewEngine(view, cfg.params, book, engineOpts...)
	env.Node = node.New(env.Engine, view, node.WithClock(clock.Now))
	return env
}

// SetPrice feeds one observation into the oracle adapter.
func (e *Env) SetPrice(value uint64) {
	e.t.Helper()
	require.NotNil(e.t, e.Price, "env built without WithOracle")
	e.Price.SetPrice(value)
	require.NoError(e.t, e.adapter.Observe())
}

// Fund credits an account's balance in the settlement ledger.
func (e *Env) Fund(account, asset string, amount uint64) {
	e.t.Helper()
	require.NoError(e.t, e.Ledger.Credit(context.Background(), account, asset, amount))
}

// Balance reads an account's settlement balance.
func (e *Env) Balance(account, asset string) uint64 {
	e.t.Helper()
	bal, err := e.Ledger.Balance(context.Background(), account, asset)
	require.NoError(e.t, err)
	return bal
}

// Deposit submits a deposit and returns the result.
func (e *Env) Deposit(account string, amountA, amountB uint64) op.ApplyResult {
	return e.Node.Submit(&op.Deposit{
		BaseOp:  op.BaseOp{Account: account},
		AmountA: amountA,
		AmountB: amountB,
	})
}

// Withdraw submits a withdrawal and returns the result.
func (e *Env) Withdraw(account string, shares uint64) op.ApplyResult {
	return e.Node.Submit(&op.Withdraw{
		BaseOp: op.BaseOp{Account: account},
		Shares: shares,
	})
}

// Swap submits a swap and returns the result.
func (e *Env) Swap(account string, side pool.Side, amountIn, minOut uint64) op.ApplyResult {
	return e.Node.Submit(&op.Swap{
		BaseOp:       op.BaseOp{Account: account},
		Side:         side,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
	})
}

// ClaimFees submits a fee claim and returns the result.
func (e *Env) ClaimFees(account string) op.ApplyResult {
	return e.Node.Submit(&op.ClaimFees{
		BaseOp: op.BaseOp{Account: account},
	})
}

// Pool reads the current pool state through the node.
func (e *Env) Pool() *rpc.PoolInfo {
	e.t.Helper()
	info, err := e.Node.PoolInfo()
	require.NoError(e.t, err)
	return info
}

// Position reads one account's position through the node.
func (e *Env) Position(account string) *rpc.PositionInfo {
	e.t.Helper()
	info, err := e.Node.PositionInfo(account)
	require.NoError(e.t, err)
	return info
}

// RequireApplied fails the test unless the operation was applied.
func (e *Env) RequireApplied(res op.ApplyResult) op.ApplyResult {
	e.t.Helper()
	require.True(e.t, res.Applied, "operation rejected: %s (%s)", res.Result, res.Message)
	return res
}

// RequireResult fails the test unless the operation ended with the
// expected result code.
func (e *Env) RequireResult(expected op.Result, res op.ApplyResult) op.ApplyResult {
	e.t.Helper()
	require.Equal(e.t, expected, res.Result, "got %s (%s)", res.Result, res.Message)
	return res
}

// RequireConservation checks that the pool's holding balance equals its
// reserves plus the undistributed fee pots, per asset.
func (e *Env) RequireConservation() {
	e.t.Helper()
	info := e.Pool()
	holding := e.Ledger.HoldingAccount()
	require.Equal(e.t, info.ReserveA+info.FeePotA, e.Balance(holding, info.AssetA),
		"asset A conservation violated")
	require.Equal(e.t, info.ReserveB+info.FeePotB, e.Balance(holding, info.AssetB),
		"asset B conservation violated")
}
