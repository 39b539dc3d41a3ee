// Package indicator computes the per-symbol indicator set consumed by the
// regime classifier and signal rules. All functions are pure: identical
// candle input yields identical output.
package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"perpscan/internal/market"
)

// Config carries the externally tunable indicator periods.
type Config struct {
	RSIPeriod       int
	BBPeriod        int
	BBStdDev        float64
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	EMAShort        int
	EMALong         int
	ADXPeriod       int
	ATRPeriod       int
	VolumeAvgPeriod int
}

// Set holds the computed series for one symbol. Series share the candle
// index space; talib pads the lookback prefix with zeros, so consumers read
// from the tail.
type Set struct {
	RSI        []float64
	BBUpper    []float64
	BBMiddle   []float64
	BBLower    []float64
	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64
	ADX        []float64
	EMAShort   []float64
	EMALong    []float64
	ATR        float64
	Volatility float64 // ATR as a percentage of the last close
}

func (s *Set) last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

func (s *Set) LastRSI() float64        { return s.last(s.RSI) }
func (s *Set) LastBBUpper() float64    { return s.last(s.BBUpper) }
func (s *Set) LastBBLower() float64    { return s.last(s.BBLower) }
func (s *Set) LastMACD() float64       { return s.last(s.MACD) }
func (s *Set) LastMACDSignal() float64 { return s.last(s.MACDSignal) }
func (s *Set) LastADX() float64        { return s.last(s.ADX) }
func (s *Set) LastEMAShort() float64   { return s.last(s.EMAShort) }
func (s *Set) LastEMALong() float64    { return s.last(s.EMALong) }

// Compute derives the full indicator set from a candle series.
func Compute(candles market.Candles, cfg Config) (*Set, error) {
	minLen := cfg.MACDSlow + cfg.MACDSignal
	if cfg.EMALong > minLen {
		minLen = cfg.EMALong
	}
	if len(candles) <= minLen {
		return nil, fmt.Errorf("insufficient history: %d candles, need more than %d", len(candles), minLen)
	}
	closes := candles.Closes()
	highs := candles.Highs()
	lows := candles.Lows()

	upper, middle, lower := talib.BBands(closes, cfg.BBPeriod, cfg.BBStdDev, cfg.BBStdDev, talib.SMA)
	macd, macdSignal, macdHist := talib.Macd(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)

	atr := WilderATR(highs, lows, closes, cfg.ATRPeriod)
	lastClose := closes[len(closes)-1]
	volatility := 0.0
	if lastClose > 0 {
		volatility = atr / lastClose * 100
	}

	return &Set{
		RSI:        talib.Rsi(closes, cfg.RSIPeriod),
		BBUpper:    upper,
		BBMiddle:   middle,
		BBLower:    lower,
		MACD:       macd,
		MACDSignal: macdSignal,
		MACDHist:   macdHist,
		ADX:        talib.Adx(highs, lows, closes, cfg.ADXPeriod),
		EMAShort:   talib.Ema(closes, cfg.EMAShort),
		EMALong:    talib.Ema(closes, cfg.EMALong),
		ATR:        atr,
		Volatility: volatility,
	}, nil
}

// WilderATR computes the average true range with Wilder's smoothing, seeded
// with the first true-range sample:
//
//	atr[0] = tr[0]
//	atr[i] = (atr[i-1]*(period-1) + tr[i]) / period
//
// This matches the recurrence used upstream of the TP/SL targets, not
// talib's SMA-seeded variant.
func WilderATR(highs, lows, closes []float64, period int) float64 {
	n := len(highs)
	if n < 2 || len(lows) != n || len(closes) != n || period <= 0 {
		return 0
	}
	atr := 0.0
	for i := 1; i < n; i++ {
		tr := trueRange(highs[i], lows[i], closes[i-1])
		if i == 1 {
			atr = tr
			continue
		}
		atr = (atr*float64(period-1) + tr) / float64(period)
	}
	return atr
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if d := math.Abs(high - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// AverageVolume returns the mean of the trailing n volume samples.
func AverageVolume(volumes []float64, n int) float64 {
	if n <= 0 || len(volumes) < n {
		return 0
	}
	sum := 0.0
	for _, v := range volumes[len(volumes)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// TrailingVolumeSum sums the trailing n volume samples (fewer when the
// series is short).
func TrailingVolumeSum(volumes []float64, n int) float64 {
	if n > len(volumes) {
		n = len(volumes)
	}
	sum := 0.0
	for _, v := range volumes[len(volumes)-n:] {
		sum += v
	}
	return sum
}
