package rpc

import (
	"context"
	"encoding/json"
)

// BalanceBook is the standalone settlement ledger's query and funding
// surface. Wired only when swapd runs with its built-in balance book.
type BalanceBook interface {
	Credit(ctx context.Context, account, asset string, amount uint64) error
	Balance(ctx context.Context, account, asset string) (uint64, error)
}

// RegisterBalanceBook adds the balance query method and the admin-only
// fund method to the server's registry.
func (s *Server) RegisterBalanceBook(book BalanceBook) {
	s.registry.Register("balance", &BalanceMethod{book: book})
	s.registry.Register("fund", &FundMethod{book: book})
}

// BalanceMethod implements the balance query method
type BalanceMethod struct {
	book BalanceBook
}

func (m *BalanceMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Account string `json:"account"`
		Asset   string `json:"asset"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Account == "" || req.Asset == "" {
		return nil, RpcErrorInvalidParams("account and asset are required")
	}
	bal, err := m.book.Balance(ctx.Context, req.Account, req.Asset)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return map[string]interface{}{
		"account": req.Account,
		"asset":   req.Asset,
		"balance": bal,
	}, nil
}

func (m *BalanceMethod) RequiredRole() Role {
	return RoleGuest
}

// FundMethod implements the fund admin method
type FundMethod struct {
	book BalanceBook
}

func (m *FundMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Account string `json:"account"`
		Asset   string `json:"asset"`
		Amount  uint64 `json:"amount"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Account == "" || req.Asset == "" {
		return nil, RpcErrorInvalidParams("account and asset are required")
	}
	if req.Amount == 0 {
		return nil, RpcErrorInvalidParams("amount must be positive")
	}
	if err := m.book.Credit(ctx.Context, req.Account, req.Asset, req.Amount); err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	balance, err := m.book.Balance(ctx.Context, req.Account, req.Asset)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return map[string]interface{}{
		"account": req.Account,
		"asset":   req.Asset,
		"balance": balance,
	}, nil
}

func (m *FundMethod) RequiredRole() Role {
	return RoleAdmin
}

// PriceFeed accepts manual oracle observations. Wired only when the
// daemon runs with oracle valuation enabled.
type PriceFeed interface {
	SubmitPrice(value uint64) error
}

// RegisterPriceFeed adds the admin-only set_price method to the server's
// registry.
func (s *Server) RegisterPriceFeed(feed PriceFeed) {
	s.registry.Register("set_price", &SetPriceMethod{feed: feed})
}

// SetPriceMethod implements the set_price admin method
type SetPriceMethod struct {
	feed PriceFeed
}

func (m *SetPriceMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Value uint64 `json:"value"`
	}
	if rpcErr := decodeParams(params, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Value == 0 {
		return nil, RpcErrorInvalidParams("value must be positive")
	}
	if err := m.feed.SubmitPrice(req.Value); err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return map[string]interface{}{"accepted": true, "value": req.Value}, nil
}

func (m *SetPriceMethod) RequiredRole() Role {
	return RoleAdmin
}
