package op

import (
	"math/big"
	"sync/atomic"
	"time"

	"github.com/poolworks/swapd/internal/core/pool"
)

// productSnapshot captures the reserve product of the pre-operation pool
// state, when one existed.
type productSnapshot struct {
	exists  bool
	product *big.Int
}

// ApplyResult is what the entry-point layer gets back from Submit.
type ApplyResult struct {
	Result  Result
	Applied bool
	Type    Type
	Account string
	Message string
	Outcome *Outcome
}

// Engine applies operations against the durable state view. Each Submit
// runs to completion as one atomic unit: state changes are buffered in a
// StateTable, transfer legs are staged alongside them, and only after
// the operation and the protocol invariants have succeeded are the legs
// settled (all of them or none) and the state committed.
type Engine struct {
	view      StateView
	params    Params
	transfers AssetTransfer
	valuation Valuer
	clock     func() time.Time

	// busy is the non-reentrant guard. A settlement hook that calls
	// back into Submit while an operation is in flight finds it set and
	// is rejected; this is a correctness requirement, not an
	// optimization.
	busy atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithValuation installs the oracle valuation adapter.
func WithValuation(v Valuer) Option {
	return func(e *Engine) { e.valuation = v }
}

// WithClock overrides the engine's time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// NewEngine creates an engine over the given durable view.
func NewEngine(view StateView, params Params, transfers AssetTransfer, opts ...Option) *Engine {
	e := &Engine{
		view:      view,
		params:    params,
		transfers: transfers,
		clock:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Params returns the engine's current parameter snapshot.
func (e *Engine) Params() Params {
	return e.params
}

// SetParams swaps the administrative parameters. The new values take
// effect from the next submitted operation.
func (e *Engine) SetParams(p Params) {
	e.params = p
}

// Submit validates and applies one operation. It never partially
// applies: on any non-OK result the buffered state is discarded and the
// durable view is untouched.
func (e *Engine) Submit(operation Operation) ApplyResult {
	res := ApplyResult{
		Type:    operation.Type(),
		Account: operation.Participant(),
	}

	if !e.busy.CompareAndSwap(false, true) {
		res.Result = ResultReentrancyDetected
		res.Message = ResultReentrancyDetected.Message()
		return res
	}
	defer e.busy.Store(false)

	now := e.clock()
	if d := operation.Deadline(); !d.IsZero() && now.After(d) {
		res.Result = ResultExpired
		res.Message = ResultExpired.Message()
		return res
	}

	if err := operation.Validate(); err != nil {
		r := resultFromError(err)
		if r == ResultOK || r == ResultInternal {
			r = ResultMalformed
		}
		res.Result = r
		res.Message = err.Error()
		return res
	}

	// Snapshot the pre-state product before the operation runs; the
	// invariant check below compares against it once the buffered state
	// is final.
	pre, err := e.preProduct()
	if err != nil {
		res.Result = ResultInternal
		res.Message = err.Error()
		return res
	}

	table := NewStateTable(e.view)
	ctx := &ApplyContext{
		View:      table,
		Params:    e.params,
		Valuation: e.valuation,
		Now:       now,
		Outcome:   &Outcome{},
	}

	r := operation.Apply(ctx)
	if !r.IsSuccess() {
		res.Result = r
		res.Message = r.Message()
		return res
	}

	if r := e.checkInvariants(operation, pre, ctx); !r.IsSuccess() {
		res.Result = r
		res.Message = r.Message()
		return res
	}

	// Settlement is all-or-nothing: a failed Settle has moved no funds,
	// so discarding the buffered state leaves nothing stranded.
	if len(ctx.legs) > 0 {
		if err := e.transfers.Settle(ctx.legs); err != nil {
			res.Result = ResultTransferFailed
			res.Message = err.Error()
			return res
		}
	}

	if err := table.Commit(); err != nil {
		res.Result = ResultInternal
		res.Message = err.Error()
		return res
	}

	res.Result = ResultOK
	res.Applied = true
	res.Message = ResultOK.Message()
	res.Outcome = ctx.Outcome
	return res
}

// preProduct reads the reserve product from the durable (pre-operation)
// view.
func (e *Engine) preProduct() (*productSnapshot, error) {
	data, err := e.view.Read(e.params.PoolKey())
	if err != nil {
		return nil, err
	}
	snap := &productSnapshot{}
	if data == nil {
		return snap, nil
	}
	p, err := pool.ParsePool(data)
	if err != nil {
		return nil, err
	}
	snap.exists = true
	snap.product = p.Product()
	return snap, nil
}

// checkInvariants re-validates the post-state against the pre-state
// snapshot after the operation has run, before anything is settled or
// committed.
func (e *Engine) checkInvariants(operation Operation, pre *productSnapshot, ctx *ApplyContext) Result {
	post, existed, err := ctx.readPool()
	if err != nil {
		return ResultInternal
	}
	if !existed {
		// Only possible before the first deposit; nothing to check.
		return ResultOK
	}
	if err := post.Validate(); err != nil {
		return ResultInvariantFailed
	}
	// The constant-product rule binds swaps: net of the retained fee, the
	// reserve product must never fall.
	if operation.Type() == TypeSwap && pre.exists {
		if post.Product().Cmp(pre.product) < 0 {
			return ResultInvariantFailed
		}
	}
	return ResultOK
}
