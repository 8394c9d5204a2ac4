package op

import (
	"errors"
	"fmt"

	"github.com/poolworks/swapd/internal/core/fixedpoint"
	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/core/pricing"
	"github.com/poolworks/swapd/internal/oracle"
)

// Result is an operation result code. Zero is success; everything else
// aborts the operation with no state applied.
type Result int

const (
	ResultOK Result = 0

	// Arithmetic failures (100-109)
	ResultArithmeticOverflow Result = 101
	ResultDivisionByZero     Result = 102

	// Ledger failures (110-119)
	ResultInsufficientReserves     Result = 110
	ResultInsufficientLiquidity    Result = 111
	ResultInsufficientShares       Result = 112
	ResultDegenerateInitialDeposit Result = 113
	ResultZeroLiquidityOut         Result = 114

	// Guard failures (120-129)
	ResultSlippageExceeded Result = 120
	ResultNothingToClaim   Result = 121
	ResultExpired          Result = 122

	// Collaborator failures (130-139)
	ResultTransferFailed  Result = 130
	ResultStaleOracleData Result = 131

	// Engine failures (140-149)
	ResultReentrancyDetected Result = 140
	ResultMalformed          Result = 141
	ResultInvariantFailed    Result = 142
	ResultInternal           Result = 143
)

var resultNames = map[Result]string{
	ResultOK:                       "ok",
	ResultArithmeticOverflow:       "arithmeticOverflow",
	ResultDivisionByZero:           "divisionByZero",
	ResultInsufficientReserves:     "insufficientReserves",
	ResultInsufficientLiquidity:    "insufficientLiquidity",
	ResultInsufficientShares:       "insufficientShares",
	ResultDegenerateInitialDeposit: "degenerateInitialDeposit",
	ResultZeroLiquidityOut:         "zeroLiquidityOut",
	ResultSlippageExceeded:         "slippageExceeded",
	ResultNothingToClaim:           "nothingToClaim",
	ResultExpired:                  "expired",
	ResultTransferFailed:           "transferFailed",
	ResultStaleOracleData:          "staleOracleData",
	ResultReentrancyDetected:       "reentrancyDetected",
	ResultMalformed:                "malformed",
	ResultInvariantFailed:          "invariantFailed",
	ResultInternal:                 "internal",
}

var resultMessages = map[Result]string{
	ResultOK:                       "The operation was applied.",
	ResultArithmeticOverflow:       "An intermediate value exceeded the representable range.",
	ResultDivisionByZero:           "A computation divided by zero.",
	ResultInsufficientReserves:     "A reserve would have gone below zero.",
	ResultInsufficientLiquidity:    "The pool has no liquidity on one side.",
	ResultInsufficientShares:       "The position does not hold enough shares.",
	ResultDegenerateInitialDeposit: "The initial deposit must fund both assets.",
	ResultZeroLiquidityOut:         "The computed amount rounds to zero.",
	ResultSlippageExceeded:         "The quoted output fell below the requested minimum.",
	ResultNothingToClaim:           "No fees are claimable.",
	ResultExpired:                  "The operation deadline has passed.",
	ResultTransferFailed:           "An asset transfer was not confirmed.",
	ResultStaleOracleData:          "The oracle price is stale or unavailable.",
	ResultReentrancyDetected:       "A state-mutating operation is already in progress.",
	ResultMalformed:                "The operation is malformed.",
	ResultInvariantFailed:          "A protocol invariant would have been violated.",
	ResultInternal:                 "An internal error occurred.",
}

// String returns the canonical code name.
func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// Message returns a human-readable description.
func (r Result) Message() string {
	if s, ok := resultMessages[r]; ok {
		return s
	}
	return "Unknown result code."
}

// IsSuccess reports whether the operation was applied.
func (r Result) IsSuccess() bool {
	return r == ResultOK
}

// resultFromError maps component sentinel errors onto result codes so the
// ledgers and pricing engine stay free of engine concerns.
func resultFromError(err error) Result {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, fixedpoint.ErrOverflow):
		return ResultArithmeticOverflow
	case errors.Is(err, fixedpoint.ErrDivideByZero):
		return ResultDivisionByZero
	case errors.Is(err, pool.ErrInsufficientReserves):
		return ResultInsufficientReserves
	case errors.Is(err, pool.ErrInsufficientShares):
		return ResultInsufficientShares
	case errors.Is(err, pool.ErrDegenerateInitialDeposit):
		return ResultDegenerateInitialDeposit
	case errors.Is(err, pool.ErrZeroLiquidityOut):
		return ResultZeroLiquidityOut
	case errors.Is(err, pool.ErrNothingToClaim):
		return ResultNothingToClaim
	case errors.Is(err, pricing.ErrInsufficientLiquidity):
		return ResultInsufficientLiquidity
	case errors.Is(err, pricing.ErrZeroAmount), errors.Is(err, pricing.ErrBadFee):
		return ResultMalformed
	case errors.Is(err, oracle.ErrStalePrice), errors.Is(err, oracle.ErrNoData),
		errors.Is(err, oracle.ErrZeroPrice):
		return ResultStaleOracleData
	default:
		return ResultInternal
	}
}
