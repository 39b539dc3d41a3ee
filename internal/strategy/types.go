package strategy

import "time"

// Direction of a trade signal.
type Direction string

const (
	Long  Direction = "Long"
	Short Direction = "Short"
)

// Opposite returns the closing side for a direction.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// OrderSide maps a direction onto the exchange order side for an entry.
func (d Direction) OrderSide() string {
	if d == Long {
		return "BUY"
	}
	return "SELL"
}

// Regime is the classified character of a symbol's recent price action.
// MIXED is terminal for the scan: no signal is emitted.
type Regime string

const (
	RegimeTrending Regime = "TRENDING"
	RegimeSideway  Regime = "SIDEWAY"
	RegimeMixed    Regime = "MIXED"
)

// Candidate is a raw directional reading produced by one regime rule set,
// before risk filtering.
type Candidate struct {
	Direction Direction
	Strength  float64 // 0-100
	Reason    string
}

// Signal is an accepted trade candidate. It lives in the scan-owned batch
// until the next scan replaces it or an order consumes it.
type Signal struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Price     float64   `json:"price"`
	Strength  float64   `json:"strength"`
	TPROI     float64   `json:"tp_roi"`
	SLROI     float64   `json:"sl_roi"` // stored negative
	Reason    string    `json:"reason"`
	Regime    Regime    `json:"regime"`
	Timestamp time.Time `json:"timestamp"`
}
