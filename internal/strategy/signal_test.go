package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpscan/internal/analysis/indicator"
	"perpscan/internal/market"
)

func candlesWithVolumes(price float64, volumes []float64) market.Candles {
	out := make(market.Candles, len(volumes))
	for i, v := range volumes {
		out[i] = market.Candle{Close: price, High: price, Low: price, Volume: v}
	}
	return out
}

func spikeVolumes(n int, base, last float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base
	}
	out[n-1] = last
	return out
}

func TestSidewayLongCandidate(t *testing.T) {
	// Price at the lower band, deep oversold RSI, 3x volume spike.
	candles := candlesWithVolumes(99, spikeVolumes(30, 100, 300))
	ind := &indicator.Set{
		RSI:     []float64{25},
		BBLower: []float64{99},
		BBUpper: []float64{110},
	}

	cand := Generate(RegimeSideway, candles, ind, 20)
	require.NotNil(t, cand)
	assert.Equal(t, Long, cand.Direction)
	// (30-25)*2 rsi points + 30 volume + 20 base.
	assert.Equal(t, 60.0, cand.Strength)
	assert.Contains(t, cand.Reason, "Range Bottom")
}

func TestSidewayShortCandidate(t *testing.T) {
	candles := candlesWithVolumes(111, spikeVolumes(30, 100, 300))
	ind := &indicator.Set{
		RSI:     []float64{75},
		BBLower: []float64{95},
		BBUpper: []float64{110},
	}

	cand := Generate(RegimeSideway, candles, ind, 20)
	require.NotNil(t, cand)
	assert.Equal(t, Short, cand.Direction)
	assert.Equal(t, 60.0, cand.Strength)
	assert.Contains(t, cand.Reason, "Range Top")
}

func TestSidewayRequiresVolumeSpike(t *testing.T) {
	// Same setup as the long case but flat volume.
	candles := candlesWithVolumes(99, spikeVolumes(30, 100, 100))
	ind := &indicator.Set{
		RSI:     []float64{25},
		BBLower: []float64{99},
		BBUpper: []float64{110},
	}
	assert.Nil(t, Generate(RegimeSideway, candles, ind, 20))
}

func TestSidewayRSIGate(t *testing.T) {
	candles := candlesWithVolumes(99, spikeVolumes(30, 100, 300))
	ind := &indicator.Set{
		RSI:     []float64{45}, // not oversold
		BBLower: []float64{99},
		BBUpper: []float64{110},
	}
	assert.Nil(t, Generate(RegimeSideway, candles, ind, 20))
}

func TestTrendingLongCandidate(t *testing.T) {
	candles := candlesWithVolumes(110, spikeVolumes(30, 100, 100))
	ind := &indicator.Set{
		EMAShort:   []float64{105},
		EMALong:    []float64{100},
		MACD:       []float64{0.5},
		MACDSignal: []float64{0.2},
		ADX:        []float64{30},
	}

	cand := Generate(RegimeTrending, candles, ind, 20)
	require.NotNil(t, cand)
	assert.Equal(t, Long, cand.Direction)
	// min(30,50) adx + min(0.5*100,30) macd + 20 base.
	assert.Equal(t, 80.0, cand.Strength)
	assert.Contains(t, cand.Reason, "EMA Bullish")
}

func TestTrendingShortCandidate(t *testing.T) {
	candles := candlesWithVolumes(95, spikeVolumes(30, 100, 100))
	ind := &indicator.Set{
		EMAShort:   []float64{98},
		EMALong:    []float64{102},
		MACD:       []float64{-0.4},
		MACDSignal: []float64{-0.1},
		ADX:        []float64{35},
	}

	cand := Generate(RegimeTrending, candles, ind, 20)
	require.NotNil(t, cand)
	assert.Equal(t, Short, cand.Direction)
	assert.Contains(t, cand.Reason, "EMA Bearish")
}

func TestTrendingNeedsPriceOnTrendSide(t *testing.T) {
	// Bullish EMAs and MACD but price below the short EMA.
	candles := candlesWithVolumes(101, spikeVolumes(30, 100, 100))
	ind := &indicator.Set{
		EMAShort:   []float64{105},
		EMALong:    []float64{100},
		MACD:       []float64{0.5},
		MACDSignal: []float64{0.2},
		ADX:        []float64{30},
	}
	assert.Nil(t, Generate(RegimeTrending, candles, ind, 20))
}

func TestMixedRegimeGeneratesNothing(t *testing.T) {
	candles := candlesWithVolumes(100, spikeVolumes(30, 100, 300))
	assert.Nil(t, Generate(RegimeMixed, candles, &indicator.Set{}, 20))
}

func TestStrengthIsCappedAt100(t *testing.T) {
	assert.Equal(t, 100.0, sidewayStrength(0, true))
	assert.Equal(t, 100.0, trendingStrength(60, 1.0))
}
