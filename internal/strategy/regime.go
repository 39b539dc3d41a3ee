package strategy

import "math"

// Regime thresholds. A symbol is SIDEWAY only when trend strength, EMA
// spread and volatility are all low, TRENDING only when all are high;
// anything in between is MIXED and skipped for the scan.
const (
	adxThreshold      = 25.0
	emaSpreadPctLimit = 3.0
	atrPctLimit       = 2.0
)

// ClassifyRegime labels the current market state from the latest ADX, EMA
// pair, ATR and price. Pure and deterministic; the three regions are
// mutually exclusive and exhaustive.
func ClassifyRegime(adx, emaShort, emaLong, atr, price float64) Regime {
	if price <= 0 {
		return RegimeMixed
	}
	emaDistancePct := math.Abs(emaShort-emaLong) / price * 100
	atrPct := atr / price * 100

	switch {
	case adx < adxThreshold && emaDistancePct < emaSpreadPctLimit && atrPct < atrPctLimit:
		return RegimeSideway
	case adx > adxThreshold && emaDistancePct > emaSpreadPctLimit && atrPct > atrPctLimit:
		return RegimeTrending
	default:
		return RegimeMixed
	}
}
