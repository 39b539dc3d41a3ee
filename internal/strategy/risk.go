package strategy

import (
	"math"
	"time"

	"github.com/google/uuid"

	"perpscan/internal/analysis/indicator"
	"perpscan/internal/logger"
	"perpscan/internal/market"
)

const (
	tpATRMultiple = 3.0
	slATRMultiple = 1.5

	// Trailing window used as the liquidity proxy: with hourly candles this
	// approximates 24h traded volume.
	dailyVolumeWindow = 24
)

// RiskConfig carries the acceptance thresholds for candidate signals.
type RiskConfig struct {
	MinTradeVolume float64
	MinConfidence  float64
	MinTPROI       float64
}

// RiskFilter turns candidates into accepted signals, dropping anything that
// fails the liquidity, confidence or minimum-reward checks.
type RiskFilter struct {
	cfg   RiskConfig
	nowFn func() time.Time
}

func NewRiskFilter(cfg RiskConfig) *RiskFilter {
	return &RiskFilter{cfg: cfg, nowFn: time.Now}
}

// Targets holds ATR-derived bracket targets expressed both as absolute
// prices and as ROI percent relative to entry.
type Targets struct {
	TP    float64
	SL    float64
	TPROI float64
	SLROI float64 // negative
}

// ATRTargets derives TP/SL from the current ATR: TP at 3x ATR, SL at 1.5x
// ATR on the adverse side, per direction.
func ATRTargets(dir Direction, price, atr float64) Targets {
	var tp, sl float64
	if dir == Long {
		tp = price + tpATRMultiple*atr
		sl = price - slATRMultiple*atr
	} else {
		tp = price - tpATRMultiple*atr
		sl = price + slATRMultiple*atr
	}
	tpROI := math.Abs((tp - price) / price * 100)
	slROI := math.Abs((sl - price) / price * 100)
	return Targets{
		TP:    tp,
		SL:    sl,
		TPROI: round2(tpROI),
		SLROI: -round2(slROI),
	}
}

// Accept validates a candidate and, if it passes every check, promotes it to
// a Signal. A nil return means the symbol produces nothing this scan.
func (f *RiskFilter) Accept(symbol string, regime Regime, cand *Candidate, candles market.Candles, ind *indicator.Set) *Signal {
	if cand == nil {
		return nil
	}
	price := candles.LastClose()
	if price <= 0 {
		return nil
	}

	dailyVolume := indicator.TrailingVolumeSum(candles.Volumes(), dailyVolumeWindow)
	if dailyVolume < f.cfg.MinTradeVolume {
		logger.Debugf("[%s] signal dropped: daily volume %.0f below %.0f", symbol, dailyVolume, f.cfg.MinTradeVolume)
		return nil
	}
	if cand.Strength < f.cfg.MinConfidence {
		logger.Debugf("[%s] signal dropped: strength %.0f below %.0f", symbol, cand.Strength, f.cfg.MinConfidence)
		return nil
	}
	targets := ATRTargets(cand.Direction, price, ind.ATR)
	if targets.TPROI < f.cfg.MinTPROI {
		logger.Debugf("[%s] signal dropped: TP ROI %.2f%% below %.2f%%", symbol, targets.TPROI, f.cfg.MinTPROI)
		return nil
	}

	return &Signal{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Direction: cand.Direction,
		Price:     price,
		Strength:  cand.Strength,
		TPROI:     targets.TPROI,
		SLROI:     targets.SLROI,
		Reason:    cand.Reason,
		Regime:    regime,
		Timestamp: f.nowFn().UTC(),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
