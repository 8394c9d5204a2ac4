// Package node assembles the engine, state store, history journal and
// event publisher into the service the RPC layer exposes.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/poolworks/swapd/internal/core/fixedpoint"
	"github.com/poolworks/swapd/internal/core/op"
	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/core/pricing"
	"github.com/poolworks/swapd/internal/rpc"
	"github.com/poolworks/swapd/internal/storage/history"
	"github.com/poolworks/swapd/internal/version"
)

// Node implements rpc.PoolService over one engine.
type Node struct {
	engine    *op.Engine
	view      op.StateView
	journal   *history.Manager
	publisher rpc.EventPublisher
	clock     func() time.Time
	startedAt time.Time

	// submitMu queues concurrent RPC submissions. The engine's
	// reentrancy guard is for callbacks from inside an operation, not
	// admission control; two well-behaved clients must never see a
	// reentrancy rejection.
	submitMu sync.Mutex
}

// Option configures a Node.
type Option func(*Node)

// WithJournal installs the history journal manager.
func WithJournal(journal *history.Manager) Option {
	return func(n *Node) { n.journal = journal }
}

// WithPublisher installs the event publisher.
func WithPublisher(publisher rpc.EventPublisher) Option {
	return func(n *Node) { n.publisher = publisher }
}

// WithClock overrides the node's time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(n *Node) { n.clock = now }
}

// New creates a node over an engine and the durable view it runs on.
func New(engine *op.Engine, view op.StateView, opts ...Option) *Node {
	n := &Node{
		engine:    engine,
		view:      view,
		publisher: rpc.NewNoOpPublisher(),
		clock:     time.Now,
	}
	for _, o := range opts {
		o(n)
	}
	n.startedAt = n.clock()
	return n
}

// Submit applies one operation, journals it and publishes events.
// Non-applied results are journaled too: a rejected operation is still
// an auditable fact. Concurrent submissions queue and run one at a time.
func (n *Node) Submit(operation op.Operation) op.ApplyResult {
	n.submitMu.Lock()
	defer n.submitMu.Unlock()

	res := n.engine.Submit(operation)
	now := n.clock()

	if n.journal != nil {
		rec := &history.Record{
			AppliedAt: now,
			OpType:    string(res.Type),
			Account:   res.Account,
			Result:    res.Result.String(),
		}
		if res.Outcome != nil {
			if data, err := json.Marshal(res.Outcome); err == nil {
				rec.Outcome = data
			}
		}
		n.journal.Record(context.Background(), rec)
	}

	if res.Applied {
		n.publisher.PublishOperation(rpc.NewOperationEvent(res, now))
		if info, err := n.PoolInfo(); err == nil {
			n.publisher.PublishPoolState(rpc.NewPoolEvent(*info))
		}
	}
	return res
}

// Params returns the engine's parameter snapshot.
func (n *Node) Params() op.Params {
	return n.engine.Params()
}

// PoolInfo reads the pool record from the durable view.
func (n *Node) PoolInfo() (*rpc.PoolInfo, error) {
	params := n.engine.Params()
	info := &rpc.PoolInfo{
		AssetA: params.AssetA,
		AssetB: params.AssetB,
		FeeBps: params.FeeBps,
	}

	p, existed, err := n.readPool()
	if err != nil {
		return nil, err
	}
	if !existed {
		return info, nil
	}
	info.ReserveA = p.ReserveA
	info.ReserveB = p.ReserveB
	info.TotalShares = p.TotalShares
	info.FeePotA = p.FeePotA
	info.FeePotB = p.FeePotB
	info.Active = p.Active()
	return info, nil
}

// PositionInfo reads one participant's position and derives its
// redeemable amounts and pending fees.
func (n *Node) PositionInfo(account string) (*rpc.PositionInfo, error) {
	info := &rpc.PositionInfo{Account: account}

	p, existed, err := n.readPool()
	if err != nil {
		return nil, err
	}
	if !existed {
		return info, nil
	}
	info.TotalShares = p.TotalShares

	params := n.engine.Params()
	key := pool.PositionKey(params.PoolKey(), account)
	data, err := n.view.Read(key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return info, nil
	}
	pos, err := pool.ParsePosition(data)
	if err != nil {
		return nil, err
	}
	info.Shares = pos.Shares

	if pos.Shares > 0 && p.TotalShares > 0 {
		if info.RedeemableA, err = fixedpoint.MulDiv(pos.Shares, p.ReserveA, p.TotalShares); err != nil {
			return nil, err
		}
		if info.RedeemableB, err = fixedpoint.MulDiv(pos.Shares, p.ReserveB, p.TotalShares); err != nil {
			return nil, err
		}
	}
	if info.PendingFeesA, info.PendingFeesB, err = p.PendingFees(pos); err != nil {
		return nil, err
	}
	return info, nil
}

// QuoteOut prices a fixed-input swap against the current reserves.
func (n *Node) QuoteOut(side pool.Side, amountIn uint64) (*pricing.Quote, error) {
	p, existed, err := n.readPool()
	if err != nil {
		return nil, err
	}
	if !existed || !p.Active() {
		return nil, pricing.ErrInsufficientLiquidity
	}
	q, err := pricing.QuoteOut(p.Reserve(side), p.Reserve(side.Other()), amountIn, n.engine.Params().FeeBps)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// QuoteIn prices a fixed-output swap against the current reserves.
func (n *Node) QuoteIn(side pool.Side, amountOut uint64) (*pricing.Quote, error) {
	p, existed, err := n.readPool()
	if err != nil {
		return nil, err
	}
	if !existed || !p.Active() {
		return nil, pricing.ErrInsufficientLiquidity
	}
	q, err := pricing.QuoteIn(p.Reserve(side), p.Reserve(side.Other()), amountOut, n.engine.Params().FeeBps)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// History queries the journal.
func (n *Node) History(account string, limit int) ([]history.Record, error) {
	if n.journal == nil {
		return nil, nil
	}
	if account == "" {
		return n.journal.Journal().Recent(context.Background(), limit)
	}
	return n.journal.Journal().AccountRecords(context.Background(), account, limit)
}

// ServerInfo reports server-level information.
func (n *Node) ServerInfo() rpc.ServerInfo {
	params := n.engine.Params()
	info := rpc.ServerInfo{
		Version:       version.Version,
		UptimeSeconds: int64(n.clock().Sub(n.startedAt).Seconds()),
		AssetA:        params.AssetA,
		AssetB:        params.AssetB,
		FeeBps:        params.FeeBps,
	}
	for _, t := range op.Types() {
		info.Operations = append(info.Operations, string(t))
	}
	if n.journal != nil {
		if count, err := n.journal.Journal().Count(context.Background()); err == nil {
			info.JournalCount = count
		}
	}
	return info
}

func (n *Node) readPool() (*pool.Pool, bool, error) {
	data, err := n.view.Read(n.engine.Params().PoolKey())
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}
	p, err := pool.ParsePool(data)
	if err != nil {
		return nil, false, fmt.Errorf("node: corrupt pool record: %w", err)
	}
	return p, true, nil
}

var _ rpc.PoolService = (*Node)(nil)
