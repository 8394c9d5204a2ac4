package oracle

import (
	"sync"
	"time"
)

// ManualSource is a PriceOracle fed by hand, over the admin RPC surface
// or from tests. It reports the last price set and the time it was set.
type ManualSource struct {
	mu    sync.Mutex
	value uint64
	ts    time.Time
	now   func() time.Time
}

// NewManualSource returns an empty source. LatestPrice fails with
// ErrNoData until the first SetPrice.
func NewManualSource() *ManualSource {
	return &ManualSource{now: time.Now}
}

// SetClock overrides the source's time source. Test hook.
func (m *ManualSource) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetPrice records a spot price of B in A-units at PriceScale.
func (m *ManualSource) SetPrice(value uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.ts = m.now()
}

// LatestPrice implements PriceOracle.
func (m *ManualSource) LatestPrice() (uint64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ts.IsZero() {
		return 0, time.Time{}, ErrNoData
	}
	return m.value, m.ts, nil
}

var _ PriceOracle = (*ManualSource)(nil)
