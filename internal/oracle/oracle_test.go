package oracle_test

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolworks/swapd/internal/oracle"
	"github.com/poolworks/swapd/internal/oracle/mocks"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestObserveRejectsStaleReading(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Unix(1_700_000_000, 0)
	feed := mocks.NewMockPriceOracle(ctrl)
	feed.EXPECT().LatestPrice().Return(uint64(2*oracle.PriceScale), now.Add(-2*time.Minute), nil)

	a := oracle.NewAdapter(feed, time.Minute, 10*time.Minute)
	a.SetClock(fixedClock(now))

	err := a.Observe()
	assert.ErrorIs(t, err, oracle.ErrStalePrice)

	_, err = a.ValuationRatio()
	assert.ErrorIs(t, err, oracle.ErrNoData)
}

func TestObserveRejectsZeroPrice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Unix(1_700_000_000, 0)
	feed := mocks.NewMockPriceOracle(ctrl)
	feed.EXPECT().LatestPrice().Return(uint64(0), now, nil)

	a := oracle.NewAdapter(feed, time.Minute, 10*time.Minute)
	a.SetClock(fixedClock(now))

	assert.ErrorIs(t, a.Observe(), oracle.ErrZeroPrice)
}

func TestValuationRatioSmoothsSpike(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	start := time.Unix(1_700_000_000, 0)
	feed := mocks.NewMockPriceOracle(ctrl)
	a := oracle.NewAdapter(feed, time.Minute, 10*time.Minute)

	// Steady price for 9 minutes, then a 10x spike for the final minute.
	clock := start
	a.SetClock(func() time.Time { return clock })

	feed.EXPECT().LatestPrice().Return(uint64(oracle.PriceScale), start, nil)
	require.NoError(t, a.Observe())

	clock = start.Add(9 * time.Minute)
	feed.EXPECT().LatestPrice().Return(uint64(10*oracle.PriceScale), clock, nil)
	require.NoError(t, a.Observe())

	clock = start.Add(10 * time.Minute)
	ratio, err := a.ValuationRatio()
	require.NoError(t, err)

	// TWAP = (1*540s + 10*60s)/600s = 1.9, nowhere near the spot spike.
	assert.Equal(t, uint64(19*oracle.PriceScale/10), ratio)
}

func TestValuationRatioRejectsExpiredWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	start := time.Unix(1_700_000_000, 0)
	feed := mocks.NewMockPriceOracle(ctrl)
	feed.EXPECT().LatestPrice().Return(uint64(3*oracle.PriceScale), start, nil)

	a := oracle.NewAdapter(feed, time.Minute, 10*time.Minute)
	clock := start
	a.SetClock(func() time.Time { return clock })
	require.NoError(t, a.Observe())

	// The only observation ages past the staleness bound.
	clock = start.Add(5 * time.Minute)
	_, err := a.ValuationRatio()
	assert.ErrorIs(t, err, oracle.ErrStalePrice)
}
