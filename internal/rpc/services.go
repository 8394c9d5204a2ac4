package rpc

import (
	"github.com/poolworks/swapd/internal/core/op"
	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/core/pricing"
	"github.com/poolworks/swapd/internal/storage/history"
)

// PoolInfo describes the pool's public state.
type PoolInfo struct {
	AssetA      string `json:"asset_a"`
	AssetB      string `json:"asset_b"`
	ReserveA    uint64 `json:"reserve_a"`
	ReserveB    uint64 `json:"reserve_b"`
	TotalShares uint64 `json:"total_shares"`
	FeePotA     uint64 `json:"fee_pot_a"`
	FeePotB     uint64 `json:"fee_pot_b"`
	FeeBps      uint16 `json:"fee_bps"`
	Active      bool   `json:"active"`
}

// PositionInfo describes one participant's stake.
type PositionInfo struct {
	Account     string `json:"account"`
	Shares      uint64 `json:"shares"`
	TotalShares uint64 `json:"total_shares"`

	// RedeemableA and RedeemableB are what the shares would pay out at
	// the current reserves.
	RedeemableA uint64 `json:"redeemable_a"`
	RedeemableB uint64 `json:"redeemable_b"`

	// PendingFeesA and PendingFeesB are claimable fees.
	PendingFeesA uint64 `json:"pending_fees_a"`
	PendingFeesB uint64 `json:"pending_fees_b"`
}

// ServerInfo describes the running server.
type ServerInfo struct {
	Version       string   `json:"version"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	AssetA        string   `json:"asset_a"`
	AssetB        string   `json:"asset_b"`
	FeeBps        uint16   `json:"fee_bps"`
	Operations    []string `json:"operations"`
	JournalCount  int64    `json:"journal_count"`
}

// PoolService is the surface the RPC methods call into. The node wires
// the engine, state view and journal behind it.
type PoolService interface {
	// Submit applies one operation and journals the result.
	Submit(operation op.Operation) op.ApplyResult

	// Params returns the current engine parameters.
	Params() op.Params

	// PoolInfo reads the pool record.
	PoolInfo() (*PoolInfo, error)

	// PositionInfo reads one participant's position.
	PositionInfo(account string) (*PositionInfo, error)

	// QuoteOut answers "what does amountIn buy" without mutating state.
	QuoteOut(side pool.Side, amountIn uint64) (*pricing.Quote, error)

	// QuoteIn answers "what input buys amountOut" without mutating state.
	QuoteIn(side pool.Side, amountOut uint64) (*pricing.Quote, error)

	// History returns journaled operations, account-scoped when account
	// is non-empty.
	History(account string, limit int) ([]history.Record, error)

	// ServerInfo reports server-level information.
	ServerInfo() ServerInfo
}
