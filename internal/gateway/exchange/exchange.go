// Package exchange defines the gateway surface the bot consumes. Exactly one
// concrete implementation (mainnet or testnet) is constructed at process
// start; nothing branches on the environment per call.
package exchange

import (
	"context"
	"time"

	"perpscan/internal/market"
)

type Balance struct {
	Asset     string  `json:"asset"`
	Balance   float64 `json:"balance"`
	Available float64 `json:"available"`
	CrossPnl  float64 `json:"cross_pnl"`
}

// Position is the local view of one open contract position. StopLoss and
// TakeProfit are filled in by the executor after bracket placement; the
// exchange position-list call leaves them zero.
type Position struct {
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"` // LONG | SHORT
	EntryPrice    float64   `json:"entry_price"`
	MarkPrice     float64   `json:"mark_price"`
	Size          float64   `json:"size"` // absolute quantity
	UnrealizedPnl float64   `json:"unrealized_pnl"`
	Leverage      float64   `json:"leverage"`
	StopLoss      float64   `json:"stop_loss,omitempty"`
	TakeProfit    float64   `json:"take_profit,omitempty"`
	Status        string    `json:"status"` // active | closed
	UpdatedAt     time.Time `json:"updated_at"`
}

// PositionUpdate carries one position entry of an account push event, with
// the wire abbreviations (s/pa/ep/mp/up) already expanded by the gateway.
type PositionUpdate struct {
	Symbol        string  `json:"symbol"`
	PositionAmt   float64 `json:"position_amt"` // signed
	EntryPrice    float64 `json:"entry_price"`
	MarkPrice     float64 `json:"mark_price"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeMarket           = "MARKET"
	OrderTypeTakeProfitMarket = "TAKE_PROFIT_MARKET"
	OrderTypeStopMarket       = "STOP_MARKET"
)

// OrderIntent is the ephemeral order request handed to the gateway; it is
// not persisted beyond the call.
type OrderIntent struct {
	Symbol        string  `json:"symbol"`
	Side          string  `json:"side"`
	Type          string  `json:"type"`
	Quantity      float64 `json:"quantity,omitempty"`
	StopPrice     float64 `json:"stop_price,omitempty"`
	ClosePosition bool    `json:"close_position,omitempty"`
	ReduceOnly    bool    `json:"reduce_only,omitempty"`
}

type OrderResult struct {
	OrderID     int64   `json:"order_id"`
	Symbol      string  `json:"symbol"`
	Status      string  `json:"status"`
	AvgPrice    float64 `json:"avg_price"`
	ExecutedQty float64 `json:"executed_qty"`
}

// ErrorClass buckets gateway errors per the execution policy: AlreadySet
// responses count as success, Soft errors are logged and skipped past on
// non-critical steps, Fatal errors abort the order sequence.
type ErrorClass int

const (
	ErrClassFatal ErrorClass = iota
	ErrClassSoft
	ErrClassAlreadySet
)

// Gateway is the single exchange dependency of the scanning and execution
// pipelines.
type Gateway interface {
	ExchangeInfo(ctx context.Context) ([]market.SymbolSpec, error)
	Klines(ctx context.Context, symbol, interval string, limit int, endTime int64) (market.Candles, error)
	Balances(ctx context.Context) ([]Balance, error)
	Positions(ctx context.Context) ([]Position, error)
	SetMarginType(ctx context.Context, symbol string, isolated bool) error
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	PlaceOrder(ctx context.Context, intent OrderIntent) (OrderResult, error)
	// SubscribeAccount opens the account push stream and invokes onUpdate for
	// every position entry. The returned stop function closes the stream.
	SubscribeAccount(ctx context.Context, onUpdate func(PositionUpdate)) (func(), error)
	// ClassifyError maps a gateway error onto the execution error policy.
	ClassifyError(err error) ErrorClass
}
