package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolworks/swapd/internal/core/op"
	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/core/pricing"
	"github.com/poolworks/swapd/internal/storage/history"
)

// stubService records the last submitted operation and returns canned
// answers.
type stubService struct {
	submitted op.Operation
	submitRes op.ApplyResult

	quoteErr error
	history  []history.Record
}

func (s *stubService) Submit(operation op.Operation) op.ApplyResult {
	s.submitted = operation
	return s.submitRes
}

func (s *stubService) Params() op.Params {
	return op.Params{AssetA: "TOKA", AssetB: "TOKB", FeeBps: 30}
}

func (s *stubService) PoolInfo() (*PoolInfo, error) {
	return &PoolInfo{
		AssetA:      "TOKA",
		AssetB:      "TOKB",
		ReserveA:    1000,
		ReserveB:    1000,
		TotalShares: 1000,
		FeeBps:      30,
		Active:      true,
	}, nil
}

func (s *stubService) PositionInfo(account string) (*PositionInfo, error) {
	return &PositionInfo{Account: account, Shares: 500, TotalShares: 1000}, nil
}

func (s *stubService) QuoteOut(side pool.Side, amountIn uint64) (*pricing.Quote, error) {
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	return &pricing.Quote{AmountIn: amountIn, AmountInNet: 99, AmountOut: 90, Fee: 1}, nil
}

func (s *stubService) QuoteIn(side pool.Side, amountOut uint64) (*pricing.Quote, error) {
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	return &pricing.Quote{AmountIn: 112, AmountInNet: 111, AmountOut: amountOut, Fee: 1}, nil
}

func (s *stubService) History(account string, limit int) ([]history.Record, error) {
	return s.history, nil
}

func (s *stubService) ServerInfo() ServerInfo {
	return ServerInfo{Version: "test", AssetA: "TOKA", AssetB: "TOKB", FeeBps: 30}
}

var _ PoolService = (*stubService)(nil)

func newTestServer(t *testing.T) (*Server, *stubService) {
	t.Helper()
	service := &stubService{
		submitRes: op.ApplyResult{
			Result:  op.ResultOK,
			Applied: true,
			Type:    op.TypeDeposit,
			Account: "alice",
			Outcome: &op.Outcome{SharesMinted: 1000},
		},
	}
	return NewServer(service, 5*time.Second), service
}

func postRPC(t *testing.T, srv *Server, method string, params interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]interface{}{
		"method": method,
		"params": []json.RawMessage{raw},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "192.0.2.10:50000"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	result, ok := response["result"].(map[string]interface{})
	require.True(t, ok, "response missing result envelope")
	return result
}

func TestServeDeposit(t *testing.T) {
	srv, service := newTestServer(t)

	result := postRPC(t, srv, "deposit", map[string]interface{}{
		"account":  "alice",
		"amount_a": 1000,
		"amount_b": 1000,
	})

	assert.Equal(t, "success", result["status"])
	data := result["data"].(map[string]interface{})
	assert.Equal(t, true, data["applied"])
	assert.Equal(t, "deposit", data["op_type"])

	dep, ok := service.submitted.(*op.Deposit)
	require.True(t, ok, "expected a deposit submission, got %T", service.submitted)
	assert.Equal(t, "alice", dep.Account)
	assert.Equal(t, uint64(1000), dep.AmountA)
	assert.Equal(t, uint64(1000), dep.AmountB)
}

func TestServeSwapBySideAndAssetCode(t *testing.T) {
	srv, service := newTestServer(t)

	postRPC(t, srv, "swap", map[string]interface{}{
		"account":   "alice",
		"side":      "toka",
		"amount_in": 100,
	})
	swap, ok := service.submitted.(*op.Swap)
	require.True(t, ok)
	assert.Equal(t, pool.SideA, swap.Side)

	postRPC(t, srv, "swap", map[string]interface{}{
		"account":   "alice",
		"side":      "B",
		"amount_in": 100,
	})
	swap = service.submitted.(*op.Swap)
	assert.Equal(t, pool.SideB, swap.Side)

	result := postRPC(t, srv, "swap", map[string]interface{}{
		"account":   "alice",
		"side":      "DOGE",
		"amount_in": 100,
	})
	assert.Equal(t, "error", result["status"])
}

func TestServeUnknownMethod(t *testing.T) {
	srv, _ := newTestServer(t)

	result := postRPC(t, srv, "no_such_method", map[string]interface{}{})
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, float64(RpcUNKNOWN_COMMAND), result["error_code"])
}

func TestServeQuoteValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	// Both amounts set.
	result := postRPC(t, srv, "quote", map[string]interface{}{
		"side":       "A",
		"amount_in":  100,
		"amount_out": 90,
	})
	assert.Equal(t, "error", result["status"])

	// Neither set.
	result = postRPC(t, srv, "quote", map[string]interface{}{"side": "A"})
	assert.Equal(t, "error", result["status"])

	// Forward quote.
	result = postRPC(t, srv, "quote", map[string]interface{}{
		"side":      "A",
		"amount_in": 100,
	})
	require.Equal(t, "success", result["status"])
	data := result["data"].(map[string]interface{})
	assert.Equal(t, float64(90), data["amount_out"])
}

func TestServeQuoteInsufficientLiquidity(t *testing.T) {
	srv, service := newTestServer(t)
	service.quoteErr = pricing.ErrInsufficientLiquidity

	result := postRPC(t, srv, "quote", map[string]interface{}{
		"side":      "A",
		"amount_in": 100,
	})
	assert.Equal(t, "error", result["status"])
}

func TestServeGetDefaultsToServerInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	result := response["result"].(map[string]interface{})
	require.Equal(t, "success", result["status"])
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "TOKA", data["asset_a"])
}

func TestServeGetCannotSubmitOperations(t *testing.T) {
	srv, _ := newTestServer(t)

	// GET requests run as guest; operations need the user role.
	req := httptest.NewRequest(http.MethodGet, "/?command=deposit", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	result := response["result"].(map[string]interface{})
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, float64(RpcFORBIDDEN), result["error_code"])
}

func TestAdminMethodsRequireLoopback(t *testing.T) {
	srv, _ := newTestServer(t)

	book := &stubBook{balances: map[string]uint64{}}
	srv.RegisterBalanceBook(book)

	payload := []byte(`{"method":"fund","params":[{"account":"alice","asset":"TOKA","amount":1000}]}`)

	// Remote clients are plain users.
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.RemoteAddr = "192.0.2.10:50000"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	result := response["result"].(map[string]interface{})
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, float64(RpcFORBIDDEN), result["error_code"])

	// Loopback clients get the admin role.
	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.RemoteAddr = "127.0.0.1:50000"
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	result = response["result"].(map[string]interface{})
	require.Equal(t, "success", result["status"])
	assert.Equal(t, uint64(1000), book.balances["alice/TOKA"])
}

// A forwarding header naming a loopback address must not grant the admin
// role; only the connection's own peer address counts.
func TestSpoofedForwardedHeaderStaysUser(t *testing.T) {
	srv, _ := newTestServer(t)

	book := &stubBook{balances: map[string]uint64{}}
	srv.RegisterBalanceBook(book)

	payload := []byte(`{"method":"fund","params":[{"account":"mallory","asset":"TOKA","amount":1000000}]}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.RemoteAddr = "203.0.113.9:55000"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	result := response["result"].(map[string]interface{})
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, float64(RpcFORBIDDEN), result["error_code"])
	assert.Empty(t, book.balances)
}

func TestBalanceQueryIsPublic(t *testing.T) {
	srv, _ := newTestServer(t)
	book := &stubBook{balances: map[string]uint64{"alice/TOKA": 42}}
	srv.RegisterBalanceBook(book)

	result := postRPC(t, srv, "balance", map[string]interface{}{
		"account": "alice",
		"asset":   "TOKA",
	})
	require.Equal(t, "success", result["status"])
	data := result["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["balance"])
}

type stubBook struct {
	balances map[string]uint64
}

func (b *stubBook) Credit(ctx context.Context, account, asset string, amount uint64) error {
	b.balances[account+"/"+asset] += amount
	return nil
}

func (b *stubBook) Balance(ctx context.Context, account, asset string) (uint64, error) {
	return b.balances[account+"/"+asset], nil
}
