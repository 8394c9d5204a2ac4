// Package oracle adapts an external price feed into a reserve-equivalent
// valuation ratio for sizing deposits into a non-empty pool. The adapter
// is strictly opt-in: the engine only consults it when the oracle
// valuation mode is enabled in configuration.
package oracle

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/poolworks/swapd/internal/core/fixedpoint"
)

var (
	ErrStalePrice = errors.New("oracle: price data is stale")
	ErrNoData     = errors.New("oracle: no observations in window")
	ErrZeroPrice  = errors.New("oracle: zero price")
)

// PriceScale fixes the fixed-point denominator for oracle prices: one
// unit of B worth 2.5 units of A arrives as 2_500_000_000.
const PriceScale = 1_000_000_000

// PriceOracle is the external feed contract. Implementations report the
// latest spot price of asset B denominated in asset A at PriceScale, and
// the time it was observed.
type PriceOracle interface {
	LatestPrice() (value uint64, ts time.Time, err error)
}

// Adapter smooths oracle readings over a time window and enforces a
// staleness bound. A single fresh reading is never trusted on its own
// for valuation: the time-weighted mean over the window resists
// single-observation price manipulation.
type Adapter struct {
	source     PriceOracle
	maxAge     time.Duration
	window     time.Duration
	now        func() time.Time
	mu         sync.Mutex
	samples    []sample
}

type sample struct {
	value uint64
	ts    time.Time
}

// NewAdapter wraps source with a staleness bound and TWAP window.
func NewAdapter(source PriceOracle, maxAge, window time.Duration) *Adapter {
	return &Adapter{
		source: source,
		maxAge: maxAge,
		window: window,
		now:    time.Now,
	}
}

// SetClock overrides the adapter's time source. Test hook.
func (a *Adapter) SetClock(now func() time.Time) {
	a.now = now
}

// Observe pulls a reading from the feed into the smoothing window.
// Readings older than the staleness bound are rejected outright.
func (a *Adapter) Observe() error {
	value, ts, err := a.source.LatestPrice()
	if err != nil {
		return err
	}
	if value == 0 {
		return ErrZeroPrice
	}
	if a.now().Sub(ts) > a.maxAge {
		return ErrStalePrice
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = append(a.samples, sample{value: value, ts: ts})
	a.trimLocked()
	return nil
}

// ValuationRatio returns the smoothed price of B in units of A at
// PriceScale. It fails with ErrStalePrice when the newest observation in
// the window has exceeded the staleness bound, and ErrNoData when the
// window is empty.
func (a *Adapter) ValuationRatio() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trimLocked()

	if len(a.samples) == 0 {
		return 0, ErrNoData
	}
	newest := a.samples[len(a.samples)-1]
	if a.now().Sub(newest.ts) > a.maxAge {
		return 0, ErrStalePrice
	}

	// Time-weighted mean: each sample covers the span until the next one,
	// the newest covers the span until now.
	weighted := new(big.Int)
	var totalSecs uint64
	for i, s := range a.samples {
		var span time.Duration
		if i+1 < len(a.samples) {
			span = a.samples[i+1].ts.Sub(s.ts)
		} else {
			span = a.now().Sub(s.ts)
		}
		secs := uint64(span / time.Second)
		if secs == 0 {
			secs = 1
		}
		term := new(big.Int).Mul(new(big.Int).SetUint64(s.value), new(big.Int).SetUint64(secs))
		weighted.Add(weighted, term)
		totalSecs += secs
	}
	weighted.Quo(weighted, new(big.Int).SetUint64(totalSecs))
	return fixedpoint.BigUint64(weighted)
}

func (a *Adapter) trimLocked() {
	cutoff := a.now().Add(-a.window)
	i := 0
	for i < len(a.samples) && a.samples[i].ts.Before(cutoff) {
		i++
	}
	// Keep one sample left of the cutoff so the window start has a price.
	if i > 0 {
		i--
	}
	a.samples = a.samples[i:]
}
