package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpscan/internal/analysis/indicator"
	"perpscan/internal/market"
)

func TestATRTargetsLong(t *testing.T) {
	targets := ATRTargets(Long, 100, 2)
	assert.InDelta(t, 106.0, targets.TP, 1e-9)
	assert.InDelta(t, 97.0, targets.SL, 1e-9)
	assert.Equal(t, 6.0, targets.TPROI)
	assert.Equal(t, -3.0, targets.SLROI)
}

func TestATRTargetsShort(t *testing.T) {
	targets := ATRTargets(Short, 100, 2)
	assert.InDelta(t, 94.0, targets.TP, 1e-9)
	assert.InDelta(t, 103.0, targets.SL, 1e-9)
	assert.Equal(t, 6.0, targets.TPROI)
	assert.Equal(t, -3.0, targets.SLROI)
}

func TestATRTargetsROIRounding(t *testing.T) {
	targets := ATRTargets(Long, 3, 0.0123)
	// 3*0.0123/3*100 = 1.23, already 2dp; SL half of TP distance.
	assert.Equal(t, 1.23, targets.TPROI)
	assert.Equal(t, -0.62, targets.SLROI)
}

func liquidCandles(price float64, hourlyVolume float64) market.Candles {
	out := make(market.Candles, 30)
	for i := range out {
		out[i] = market.Candle{Close: price, Volume: hourlyVolume}
	}
	return out
}

func acceptFixture() (*RiskFilter, *Candidate, market.Candles, *indicator.Set) {
	f := NewRiskFilter(RiskConfig{
		MinTradeVolume: 1_000_000,
		MinConfidence:  60,
		MinTPROI:       5,
	})
	f.nowFn = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	cand := &Candidate{Direction: Long, Strength: 75, Reason: "Range Bottom: RSI 25.0 + Volume Spike"}
	candles := liquidCandles(100, 50_000) // 24h window sums to 1.2M
	ind := &indicator.Set{ATR: 2}         // TP ROI 6%
	return f, cand, candles, ind
}

func TestAcceptPromotesCandidate(t *testing.T) {
	f, cand, candles, ind := acceptFixture()

	sig := f.Accept("BTCUSDT", RegimeSideway, cand, candles, ind)
	require.NotNil(t, sig)
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, "BTCUSDT", sig.Symbol)
	assert.Equal(t, Long, sig.Direction)
	assert.Equal(t, 100.0, sig.Price)
	assert.Equal(t, 75.0, sig.Strength)
	assert.Equal(t, 6.0, sig.TPROI)
	assert.Equal(t, -3.0, sig.SLROI)
	assert.Equal(t, RegimeSideway, sig.Regime)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), sig.Timestamp)
}

func TestAcceptUniqueIDs(t *testing.T) {
	f, cand, candles, ind := acceptFixture()
	a := f.Accept("BTCUSDT", RegimeSideway, cand, candles, ind)
	b := f.Accept("BTCUSDT", RegimeSideway, cand, candles, ind)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAcceptDropsIlliquidSymbol(t *testing.T) {
	f, cand, _, ind := acceptFixture()
	thin := liquidCandles(100, 10_000) // 240k over 24h
	assert.Nil(t, f.Accept("THINUSDT", RegimeSideway, cand, thin, ind))
}

func TestAcceptDropsWeakCandidate(t *testing.T) {
	f, cand, candles, ind := acceptFixture()
	cand.Strength = 55
	assert.Nil(t, f.Accept("BTCUSDT", RegimeSideway, cand, candles, ind))
}

func TestAcceptDropsLowReward(t *testing.T) {
	f, cand, candles, _ := acceptFixture()
	// ATR 1 on price 100 gives TP ROI 3%, under the 5% floor.
	assert.Nil(t, f.Accept("BTCUSDT", RegimeSideway, cand, candles, &indicator.Set{ATR: 1}))
}

func TestAcceptNilCandidate(t *testing.T) {
	f, _, candles, ind := acceptFixture()
	assert.Nil(t, f.Accept("BTCUSDT", RegimeSideway, nil, candles, ind))
}
