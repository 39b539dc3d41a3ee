package strategy

import (
	"fmt"
	"math"

	"perpscan/internal/analysis/indicator"
	"perpscan/internal/market"
)

const (
	lowerBandTolerance = 1.005
	upperBandTolerance = 0.995
	rsiOversold        = 35.0
	rsiOverbought      = 65.0
	volumeSpikeFactor  = 1.5
)

// Generate applies the regime's rule set and returns at most one candidate
// for the symbol, or nil when no rule fires.
func Generate(regime Regime, candles market.Candles, ind *indicator.Set, volumeAvgPeriod int) *Candidate {
	switch regime {
	case RegimeSideway:
		return sidewayCandidate(candles, ind, volumeAvgPeriod)
	case RegimeTrending:
		return trendingCandidate(candles, ind)
	default:
		return nil
	}
}

// sidewayCandidate trades range reversals: entries near a Bollinger band
// extreme confirmed by RSI and a volume spike.
func sidewayCandidate(candles market.Candles, ind *indicator.Set, volumeAvgPeriod int) *Candidate {
	price := candles.LastClose()
	volumes := candles.Volumes()
	if len(volumes) == 0 || price <= 0 {
		return nil
	}
	currentVolume := volumes[len(volumes)-1]
	avgVolume := indicator.AverageVolume(volumes, volumeAvgPeriod)
	volumeSpike := avgVolume > 0 && currentVolume > avgVolume*volumeSpikeFactor
	rsi := ind.LastRSI()

	if price <= ind.LastBBLower()*lowerBandTolerance && rsi < rsiOversold && volumeSpike {
		return &Candidate{
			Direction: Long,
			Strength:  sidewayStrength(rsi, volumeSpike),
			Reason:    fmt.Sprintf("Range Bottom: RSI %.1f + Volume Spike", rsi),
		}
	}
	if price >= ind.LastBBUpper()*upperBandTolerance && rsi > rsiOverbought && volumeSpike {
		return &Candidate{
			Direction: Short,
			Strength:  sidewayStrength(rsi, volumeSpike),
			Reason:    fmt.Sprintf("Range Top: RSI %.1f + Volume Spike", rsi),
		}
	}
	return nil
}

// trendingCandidate follows an established trend: EMA alignment, price on
// the trend side of the short EMA, MACD agreement and a strong ADX.
func trendingCandidate(candles market.Candles, ind *indicator.Set) *Candidate {
	price := candles.LastClose()
	emaShort := ind.LastEMAShort()
	emaLong := ind.LastEMALong()
	macd := ind.LastMACD()
	macdSignal := ind.LastMACDSignal()
	adx := ind.LastADX()

	if emaShort > emaLong && price > emaShort && macd > macdSignal && adx > adxThreshold {
		return &Candidate{
			Direction: Long,
			Strength:  trendingStrength(adx, macd),
			Reason:    fmt.Sprintf("Trend Following: EMA Bullish + MACD + ADX %.1f", adx),
		}
	}
	if emaShort < emaLong && price < emaShort && macd < macdSignal && adx > adxThreshold {
		return &Candidate{
			Direction: Short,
			Strength:  trendingStrength(adx, macd),
			Reason:    fmt.Sprintf("Trend Following: EMA Bearish + MACD + ADX %.1f", adx),
		}
	}
	return nil
}

// sidewayStrength scores a range-reversal entry: up to 50 points for RSI
// distance past the 30/70 extreme, 30 for the volume spike, 20 base.
func sidewayStrength(rsi float64, volumeSpike bool) float64 {
	var rsiScore float64
	if rsi < 50 {
		rsiScore = (30 - rsi) * 2
	} else {
		rsiScore = (rsi - 70) * 2
	}
	strength := clamp(rsiScore, 0, 50)
	if volumeSpike {
		strength += 30
	}
	strength += 20
	return math.Min(math.Round(strength), 100)
}

// trendingStrength scores a trend entry: ADX capped at 50, MACD momentum
// capped at 30, 20 base.
func trendingStrength(adx, macd float64) float64 {
	strength := math.Min(adx, 50)
	strength += math.Min(math.Abs(macd)*100, 30)
	strength += 20
	return math.Min(math.Round(strength), 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
