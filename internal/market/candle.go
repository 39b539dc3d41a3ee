package market

import "time"

// Candle is one fixed-interval OHLCV bar. Series are ordered oldest to
// newest and treated as immutable once fetched.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type Candles []Candle

func (c Candle) TimeString() string {
	ts := c.CloseTime
	if ts == 0 {
		ts = c.OpenTime
	}
	if ts <= 0 {
		return "-"
	}
	return time.UnixMilli(ts).UTC().Format("01-02 15:04") + "Z"
}

func (cs Candles) Closes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

func (cs Candles) Highs() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.High
	}
	return out
}

func (cs Candles) Lows() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Low
	}
	return out
}

func (cs Candles) Volumes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Volume
	}
	return out
}

// LastClose returns the most recent close, or 0 for an empty series.
func (cs Candles) LastClose() float64 {
	if len(cs) == 0 {
		return 0
	}
	return cs[len(cs)-1].Close
}
