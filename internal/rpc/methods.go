package rpc

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/poolworks/swapd/internal/core/op"
	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/core/pricing"
)

// registerAllMethods sets up the complete method registry.
func (s *Server) registerAllMethods() {
	// Operation methods
	s.registry.Register("deposit", &DepositMethod{service: s.service})
	s.registry.Register("withdraw", &WithdrawMethod{service: s.service})
	s.registry.Register("swap", &SwapMethod{service: s.service})
	s.registry.Register("claim_fees", &ClaimFeesMethod{service: s.service})

	// Query methods
	s.registry.Register("pool_info", &PoolInfoMethod{service: s.service})
	s.registry.Register("position_info", &PositionInfoMethod{service: s.service})
	s.registry.Register("quote", &QuoteMethod{service: s.service})
	s.registry.Register("account_history", &AccountHistoryMethod{service: s.service})

	// Server methods
	s.registry.Register("server_info", &ServerInfoMethod{service: s.service})
	s.registry.Register("ping", &PingMethod{})
}

// parseSide accepts "A"/"B" or one of the configured asset codes.
func parseSide(s string, params op.Params) (pool.Side, error) {
	switch {
	case strings.EqualFold(s, "A"), strings.EqualFold(s, params.AssetA):
		return pool.SideA, nil
	case strings.EqualFold(s, "B"), strings.EqualFold(s, params.AssetB):
		return pool.SideB, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func decodeParams(params json.RawMessage, target interface{}) *RpcError {
	if params == nil {
		return RpcErrorInvalidParams("Missing parameters")
	}
	if err := json.Unmarshal(params, target); err != nil {
		return RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

// submitResponse is the wire form of an engine result.
type submitResponse struct {
	Result  string      `json:"engine_result"`
	Code    int         `json:"engine_result_code"`
	Message string      `json:"engine_result_message"`
	Applied bool        `json:"applied"`
	OpType  string      `json:"op_type"`
	Account string      `json:"account"`
	Outcome *op.Outcome `json:"outcome,omitempty"`
}

func newSubmitResponse(res op.ApplyResult) submitResponse {
	return submitResponse{
		Result:  res.Result.String(),
		Code:    int(res.Result),
		Message: res.Message,
		Applied: res.Applied,
		OpType:  string(res.Type),
		Account: res.Account,
		Outcome: res.Outcome,
	}
}

// DepositMethod implements the deposit method
type DepositMethod struct {
	service PoolService
}

type depositParams struct {
	Account  string    `json:"account"`
	AmountA  uint64    `json:"amount_a"`
	AmountB  uint64    `json:"amount_b"`
	Deadline time.Time `json:"deadline,omitempty"`
}

func (m *DepositMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p depositParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	res := m.service.Submit(&op.Deposit{
		BaseOp:  op.BaseOp{Account: p.Account, DeadlineAt: p.Deadline},
		AmountA: p.AmountA,
		AmountB: p.AmountB,
	})
	return newSubmitResponse(res), nil
}

func (m *DepositMethod) RequiredRole() Role { return RoleUser }

// WithdrawMethod implements the withdraw method
type WithdrawMethod struct {
	service PoolService
}

type withdrawParams struct {
	Account  string    `json:"account"`
	Shares   uint64    `json:"shares"`
	Deadline time.Time `json:"deadline,omitempty"`
}

func (m *WithdrawMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p withdrawParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	res := m.service.Submit(&op.Withdraw{
		BaseOp: op.BaseOp{Account: p.Account, DeadlineAt: p.Deadline},
		Shares: p.Shares,
	})
	return newSubmitResponse(res), nil
}

func (m *WithdrawMethod) RequiredRole() Role { return RoleUser }

// SwapMethod implements the swap method
type SwapMethod struct {
	service PoolService
}

type swapParams struct {
	Account      string    `json:"account"`
	Side         string    `json:"side"`
	AmountIn     uint64    `json:"amount_in"`
	MinAmountOut uint64    `json:"min_amount_out"`
	Deadline     time.Time `json:"deadline,omitempty"`
}

func (m *SwapMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p swapParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	side, err := parseSide(p.Side, m.service.Params())
	if err != nil {
		return nil, RpcErrorInvalidParams(err.Error())
	}
	res := m.service.Submit(&op.Swap{
		BaseOp:       op.BaseOp{Account: p.Account, DeadlineAt: p.Deadline},
		Side:         side,
		AmountIn:     p.AmountIn,
		MinAmountOut: p.MinAmountOut,
	})
	return newSubmitResponse(res), nil
}

func (m *SwapMethod) RequiredRole() Role { return RoleUser }

// ClaimFeesMethod implements the claim_fees method
type ClaimFeesMethod struct {
	service PoolService
}

type claimFeesParams struct {
	Account string `json:"account"`
}

func (m *ClaimFeesMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p claimFeesParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	res := m.service.Submit(&op.ClaimFees{
		BaseOp: op.BaseOp{Account: p.Account},
	})
	return newSubmitResponse(res), nil
}

func (m *ClaimFeesMethod) RequiredRole() Role { return RoleUser }

// PoolInfoMethod implements the pool_info method
type PoolInfoMethod struct {
	service PoolService
}

func (m *PoolInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	info, err := m.service.PoolInfo()
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return info, nil
}

func (m *PoolInfoMethod) RequiredRole() Role { return RoleGuest }

// PositionInfoMethod implements the position_info method
type PositionInfoMethod struct {
	service PoolService
}

type positionInfoParams struct {
	Account string `json:"account"`
}

func (m *PositionInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p positionInfoParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Account == "" {
		return nil, RpcErrorInvalidParams("Missing account")
	}
	info, err := m.service.PositionInfo(p.Account)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return info, nil
}

func (m *PositionInfoMethod) RequiredRole() Role { return RoleGuest }

// QuoteMethod implements the quote method. Exactly one of amount_in and
// amount_out must be set.
type QuoteMethod struct {
	service PoolService
}

type quoteParams struct {
	Side      string `json:"side"`
	AmountIn  uint64 `json:"amount_in,omitempty"`
	AmountOut uint64 `json:"amount_out,omitempty"`
}

func (m *QuoteMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p quoteParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	side, err := parseSide(p.Side, m.service.Params())
	if err != nil {
		return nil, RpcErrorInvalidParams(err.Error())
	}
	if (p.AmountIn == 0) == (p.AmountOut == 0) {
		return nil, RpcErrorInvalidParams("Provide exactly one of amount_in and amount_out")
	}

	if p.AmountIn != 0 {
		q, err := m.service.QuoteOut(side, p.AmountIn)
		if err != nil {
			return nil, RpcErrorInvalidParams(err.Error())
		}
		return newQuoteResponse(p.Side, q), nil
	}
	q, err := m.service.QuoteIn(side, p.AmountOut)
	if err != nil {
		return nil, RpcErrorInvalidParams(err.Error())
	}
	return newQuoteResponse(p.Side, q), nil
}

// quoteResponse is the wire form of a pricing quote.
type quoteResponse struct {
	Side        string `json:"side"`
	AmountIn    uint64 `json:"amount_in"`
	AmountInNet uint64 `json:"amount_in_net"`
	AmountOut   uint64 `json:"amount_out"`
	Fee         uint64 `json:"fee"`
}

func newQuoteResponse(side string, q *pricing.Quote) quoteResponse {
	return quoteResponse{
		Side:        strings.ToUpper(side),
		AmountIn:    q.AmountIn,
		AmountInNet: q.AmountInNet,
		AmountOut:   q.AmountOut,
		Fee:         q.Fee,
	}
}

func (m *QuoteMethod) RequiredRole() Role { return RoleGuest }

// AccountHistoryMethod implements the account_history method
type AccountHistoryMethod struct {
	service PoolService
}

type accountHistoryParams struct {
	Account string `json:"account,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

const defaultHistoryLimit = 50

func (m *AccountHistoryMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p accountHistoryParams
	if params != nil {
		if rpcErr := decodeParams(params, &p); rpcErr != nil {
			return nil, rpcErr
		}
	}
	if p.Limit <= 0 {
		p.Limit = defaultHistoryLimit
	}
	records, err := m.service.History(p.Account, p.Limit)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return map[string]interface{}{
		"account":    p.Account,
		"operations": records,
	}, nil
}

func (m *AccountHistoryMethod) RequiredRole() Role { return RoleGuest }

// ServerInfoMethod implements the server_info method
type ServerInfoMethod struct {
	service PoolService
}

func (m *ServerInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return m.service.ServerInfo(), nil
}

func (m *ServerInfoMethod) RequiredRole() Role { return RoleGuest }

// PingMethod implements the ping method
type PingMethod struct{}

func (m *PingMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{}, nil
}

func (m *PingMethod) RequiredRole() Role { return RoleGuest }
