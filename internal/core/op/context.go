package op

import (
	"time"

	"github.com/poolworks/swapd/internal/core/pool"
)

// Transfer is one settlement leg: funds moving between a participant and
// the pool's holding account. Inbound legs pull from the participant,
// outbound legs pay out to them.
type Transfer struct {
	Inbound     bool
	Participant string
	Asset       string
	Amount      uint64
}

// AssetTransfer is the external primitive that moves assets between a
// participant and the pool's holding account. Settle must apply every
// leg or none of them: the engine cannot unwind a half-settled
// operation, it can only discard its own buffered state. Settle must be
// treated as potentially reentrant; the engine holds its
// mutual-exclusion guard across the call.
type AssetTransfer interface {
	Settle(legs []Transfer) error
}

// Valuer produces the externally-priced value of one unit of asset B in
// asset-A units, at oracle.PriceScale. Satisfied by oracle.Adapter.
type Valuer interface {
	ValuationRatio() (uint64, error)
}

// Params are the administrative parameters consulted at the start of each
// operation. They are injected into the engine as a value, so a running
// operation always sees one consistent snapshot.
type Params struct {
	// AssetA and AssetB name the pool's pair.
	AssetA string
	AssetB string

	// FeeBps is the swap fee in basis points.
	FeeBps uint16

	// OracleValuation switches deposit sizing into the externally-priced
	// mode for non-empty pools. Off by default.
	OracleValuation bool
}

// Asset returns the asset code for a side.
func (p Params) Asset(s pool.Side) string {
	if s == pool.SideA {
		return p.AssetA
	}
	return p.AssetB
}

// PoolKey returns the state key of the configured pair's pool record.
func (p Params) PoolKey() pool.Key {
	return pool.PoolKey(p.AssetA, p.AssetB)
}

// Outcome reports what an applied operation moved. Only the fields
// relevant to the operation type are set.
type Outcome struct {
	SharesMinted uint64 `json:"shares_minted,omitempty"`
	SharesBurned uint64 `json:"shares_burned,omitempty"`

	AmountAIn  uint64 `json:"amount_a_in,omitempty"`
	AmountBIn  uint64 `json:"amount_b_in,omitempty"`
	AmountAOut uint64 `json:"amount_a_out,omitempty"`
	AmountBOut uint64 `json:"amount_b_out,omitempty"`

	AmountIn  uint64 `json:"amount_in,omitempty"`
	AmountOut uint64 `json:"amount_out,omitempty"`
	Fee       uint64 `json:"fee,omitempty"`

	FeesClaimedA uint64 `json:"fees_claimed_a,omitempty"`
	FeesClaimedB uint64 `json:"fees_claimed_b,omitempty"`
}

// ApplyContext provides the state and collaborators an operation needs.
type ApplyContext struct {
	// View is the buffered state table the operation mutates.
	View StateView

	// Params is the configuration snapshot for this operation.
	Params Params

	// Valuation is only set when Params.OracleValuation is enabled.
	Valuation Valuer

	// Now is the operation's wall-clock instant.
	Now time.Time

	// Outcome is filled by the operation on success.
	Outcome *Outcome

	// legs are the settlement legs the operation has staged. They are
	// settled by the engine as one unit, after the invariant checks.
	legs []Transfer
}

// TransferIn stages a leg pulling funds from the participant. Zero
// amounts stage nothing.
func (ctx *ApplyContext) TransferIn(participant, asset string, amount uint64) {
	if amount == 0 {
		return
	}
	ctx.legs = append(ctx.legs, Transfer{Inbound: true, Participant: participant, Asset: asset, Amount: amount})
}

// TransferOut stages a leg paying funds out to the participant. Zero
// amounts stage nothing.
func (ctx *ApplyContext) TransferOut(participant, asset string, amount uint64) {
	if amount == 0 {
		return
	}
	ctx.legs = append(ctx.legs, Transfer{Participant: participant, Asset: asset, Amount: amount})
}

// readPool loads the pool record, returning a fresh empty pool (and
// existed=false) when the pair has not been funded yet.
func (ctx *ApplyContext) readPool() (*pool.Pool, bool, error) {
	data, err := ctx.View.Read(ctx.Params.PoolKey())
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return pool.NewPool(), false, nil
	}
	p, err := pool.ParsePool(data)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// writePool stores the pool record, inserting or updating as needed.
func (ctx *ApplyContext) writePool(p *pool.Pool, existed bool) error {
	data, err := p.Serialize()
	if err != nil {
		return err
	}
	if existed {
		return ctx.View.Update(ctx.Params.PoolKey(), data)
	}
	return ctx.View.Insert(ctx.Params.PoolKey(), data)
}

// readPosition loads a participant's position, returning an empty one
// (and existed=false) when none exists.
func (ctx *ApplyContext) readPosition(participant string) (*pool.Position, bool, error) {
	k := pool.PositionKey(ctx.Params.PoolKey(), participant)
	data, err := ctx.View.Read(k)
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return pool.NewPosition(), false, nil
	}
	pos, err := pool.ParsePosition(data)
	if err != nil {
		return nil, false, err
	}
	return pos, true, nil
}

// writePosition stores a position. A position whose shares and accruals
// have all reached zero is erased rather than kept as an empty record.
func (ctx *ApplyContext) writePosition(participant string, pos *pool.Position, existed bool) error {
	k := pool.PositionKey(ctx.Params.PoolKey(), participant)
	if pos.Shares == 0 && pos.AccruedA == 0 && pos.AccruedB == 0 {
		if existed {
			return ctx.View.Erase(k)
		}
		return nil
	}
	data, err := pos.Serialize()
	if err != nil {
		return err
	}
	if existed {
		return ctx.View.Update(k, data)
	}
	return ctx.View.Insert(k, data)
}
