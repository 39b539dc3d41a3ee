package notifier

import (
	"fmt"
	"time"

	"perpscan/internal/strategy"
)

// OrderEvent describes an attempted or completed order for notification
// purposes.
type OrderEvent struct {
	Symbol     string
	Direction  strategy.Direction
	Quantity   float64
	EntryPrice float64
	Leverage   int
	TakeProfit float64
	StopLoss   float64
	Err        string // set on failure events
}

// PositionClosedEvent describes a position removed from the local store.
type PositionClosedEvent struct {
	Symbol     string
	Side       string
	EntryPrice float64
	MarkPrice  float64
	Pnl        float64
}

// ScanSummary aggregates one completed scan cycle.
type ScanSummary struct {
	Symbols  int
	Signals  int
	Errors   int
	Duration time.Duration
	At       time.Time
}

// Channel is the per-transport notification capability. One implementation
// exists per connected channel (Telegram, Discord); the Manager fans out
// across them. Delivery mechanics (formatting, retries) belong to the
// implementation.
type Channel interface {
	Name() string
	Connected() bool
	SendSignal(sig strategy.Signal) error
	SendOrderPlaced(ev OrderEvent) error
	SendOrderFailed(ev OrderEvent) error
	SendPositionClosed(ev PositionClosedEvent) error
	SendScanSummary(sum ScanSummary) error
	SendError(msg string) error
}

func signalMessage(sig strategy.Signal) StructuredMessage {
	return StructuredMessage{
		Icon:  "📡",
		Title: fmt.Sprintf("Signal %s %s", sig.Symbol, sig.Direction),
		Sections: []MessageSection{{
			Lines: []string{
				fmt.Sprintf("regime: %s", sig.Regime),
				fmt.Sprintf("price: %g", sig.Price),
				fmt.Sprintf("strength: %.0f", sig.Strength),
				fmt.Sprintf("TP ROI: %.2f%%", sig.TPROI),
				fmt.Sprintf("SL ROI: %.2f%%", sig.SLROI),
				sig.Reason,
			},
		}},
		Timestamp: sig.Timestamp,
	}
}

func orderPlacedMessage(ev OrderEvent) StructuredMessage {
	return StructuredMessage{
		Icon:  "📈",
		Title: fmt.Sprintf("Opened %s %s", ev.Direction, ev.Symbol),
		Sections: []MessageSection{{
			Lines: []string{
				fmt.Sprintf("entry: %g", ev.EntryPrice),
				fmt.Sprintf("quantity: %g", ev.Quantity),
				fmt.Sprintf("leverage: %dx", ev.Leverage),
				fmt.Sprintf("TP: %g", ev.TakeProfit),
				fmt.Sprintf("SL: %g", ev.StopLoss),
			},
		}},
		Timestamp: time.Now().UTC(),
	}
}

func orderFailedMessage(ev OrderEvent) StructuredMessage {
	return StructuredMessage{
		Icon:  "🔴",
		Title: fmt.Sprintf("Order failed %s %s", ev.Direction, ev.Symbol),
		Sections: []MessageSection{{
			Lines: []string{ev.Err},
		}},
		Timestamp: time.Now().UTC(),
	}
}

func positionClosedMessage(ev PositionClosedEvent) StructuredMessage {
	return StructuredMessage{
		Icon:  "🏁",
		Title: fmt.Sprintf("Position closed %s %s", ev.Symbol, ev.Side),
		Sections: []MessageSection{{
			Lines: []string{
				fmt.Sprintf("entry: %g", ev.EntryPrice),
				fmt.Sprintf("mark: %g", ev.MarkPrice),
				fmt.Sprintf("PnL: %.4f USDT", ev.Pnl),
			},
		}},
		Timestamp: time.Now().UTC(),
	}
}

func scanSummaryMessage(sum ScanSummary) StructuredMessage {
	return StructuredMessage{
		Icon:  "📊",
		Title: "Scan summary",
		Sections: []MessageSection{{
			Lines: []string{
				fmt.Sprintf("pairs scanned: %d", sum.Symbols),
				fmt.Sprintf("signals: %d", sum.Signals),
				fmt.Sprintf("errors: %d", sum.Errors),
				fmt.Sprintf("duration: %s", sum.Duration.Truncate(time.Second)),
			},
		}},
		Timestamp: sum.At,
	}
}
