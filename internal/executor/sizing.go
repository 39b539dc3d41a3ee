package executor

import (
	"github.com/shopspring/decimal"

	"perpscan/internal/market"
	"perpscan/internal/strategy"
)

// OrderQuantity converts a margin allocation into a contract quantity
// rounded down to the symbol's lot step. Returns 0 when the step-rounded
// quantity falls below the exchange minimum.
func OrderQuantity(capital float64, leverage int, price float64, spec market.SymbolSpec) float64 {
	if price <= 0 || spec.LotStep <= 0 {
		return 0
	}
	notional := decimal.NewFromFloat(capital).Mul(decimal.NewFromInt(int64(leverage)))
	raw := notional.Div(decimal.NewFromFloat(price))
	step := decimal.NewFromFloat(spec.LotStep)
	qty := raw.Div(step).Floor().Mul(step)
	out, _ := qty.Float64()
	if out < spec.MinQty {
		return 0
	}
	return out
}

// RoundToTick snaps a price onto the symbol's tick grid, rounding to the
// nearest tick.
func RoundToTick(price float64, spec market.SymbolSpec) float64 {
	if spec.TickSize <= 0 {
		return price
	}
	tick := decimal.NewFromFloat(spec.TickSize)
	rounded := decimal.NewFromFloat(price).Div(tick).Round(0).Mul(tick)
	out, _ := rounded.Float64()
	return out
}

// BracketPrices derives the take-profit and stop-loss trigger prices from
// the fill price, the leverage and the operator's ROI targets, snapped to
// the tick grid. ROI percentages are on margin, so the raw price move is
// roi / leverage.
func BracketPrices(dir strategy.Direction, entry float64, leverage int, tpROI, slROI float64, spec market.SymbolSpec) (tp, sl float64) {
	if leverage <= 0 {
		leverage = 1
	}
	tpMove := tpROI / 100 / float64(leverage)
	slMove := slROI / 100 / float64(leverage)
	if dir == strategy.Long {
		tp = entry * (1 + tpMove)
		sl = entry * (1 - slMove)
	} else {
		tp = entry * (1 - tpMove)
		sl = entry * (1 + slMove)
	}
	return RoundToTick(tp, spec), RoundToTick(sl, spec)
}
