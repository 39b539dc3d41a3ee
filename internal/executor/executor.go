// Package executor turns accepted signals into exchange orders: isolated
// margin, leverage, a market entry and an independent take-profit/stop-loss
// bracket, bounded by per-scan and per-day order limits.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"perpscan/internal/gateway/exchange"
	"perpscan/internal/gateway/notifier"
	"perpscan/internal/logger"
	"perpscan/internal/market"
	"perpscan/internal/position"
	"perpscan/internal/strategy"
)

// Config carries the order-placement tunables.
type Config struct {
	Leverage        int
	CapitalPerOrder float64 // margin in USDT committed per order
	DailyLimit      int
	PerScanLimit    int
	TakeProfitROI   float64 // percent on margin
	StopLossROI     float64 // percent on margin, positive
}

// OrderLog receives execution outcomes for persistence. Implementations
// must not block order flow; errors are the implementation's to handle.
type OrderLog interface {
	OrderPlaced(sig strategy.Signal, res exchange.OrderResult, qty, tp, sl float64)
	OrderFailed(sig strategy.Signal, reason string)
}

// Executor places orders for signals. One instance per process; callers
// serialize batches through ExecuteBatch.
type Executor struct {
	gw       exchange.Gateway
	universe *market.Universe
	tracker  *position.Tracker
	notify   notifier.Channel
	orderLog OrderLog

	cfgMu sync.RWMutex
	cfg   Config

	mu        sync.Mutex
	dailyDay  string // YYYY-MM-DD of the counted day
	dailyUsed int

	nowFn func() time.Time
}

func New(gw exchange.Gateway, universe *market.Universe, tracker *position.Tracker, notify notifier.Channel, orderLog OrderLog, cfg Config) *Executor {
	if cfg.Leverage <= 0 {
		cfg.Leverage = 20
	}
	if cfg.PerScanLimit <= 0 {
		cfg.PerScanLimit = 3
	}
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = 10
	}
	return &Executor{
		gw:       gw,
		universe: universe,
		tracker:  tracker,
		notify:   notify,
		orderLog: orderLog,
		cfg:      cfg,
		nowFn:    time.Now,
	}
}

// Retune swaps the order tunables, used by config hot reload.
func (e *Executor) Retune(cfg Config) {
	e.cfgMu.Lock()
	e.cfg = cfg
	e.cfgMu.Unlock()
}

func (e *Executor) config() Config {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

// DailyUsed returns today's placed-order count.
func (e *Executor) DailyUsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollDayLocked()
	return e.dailyUsed
}

// rollDayLocked resets the daily counter when the calendar day has changed.
func (e *Executor) rollDayLocked() {
	day := e.nowFn().Format("2006-01-02")
	if day != e.dailyDay {
		if e.dailyDay != "" {
			logger.Infof("daily order counter reset (%s -> %s)", e.dailyDay, day)
		}
		e.dailyDay = day
		e.dailyUsed = 0
	}
}

// reserveSlot consumes one daily order slot, failing when the limit is hit.
func (e *Executor) reserveSlot(limit int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollDayLocked()
	if e.dailyUsed >= limit {
		return fmt.Errorf("daily order limit reached (%d/%d)", e.dailyUsed, limit)
	}
	e.dailyUsed++
	return nil
}

func (e *Executor) releaseSlot() {
	e.mu.Lock()
	if e.dailyUsed > 0 {
		e.dailyUsed--
	}
	e.mu.Unlock()
}

// ExecuteBatch walks signals in their ranked order and places up to the
// per-scan limit, skipping symbols with open positions. Signals are
// consumed sequentially; one failed signal does not stop the rest.
func (e *Executor) ExecuteBatch(ctx context.Context, signals []strategy.Signal) {
	cfg := e.config()
	placed := 0
	for _, sig := range signals {
		if placed >= cfg.PerScanLimit {
			logger.Infof("per-scan order limit reached (%d), remaining signals dropped", cfg.PerScanLimit)
			break
		}
		if e.tracker.Has(sig.Symbol) {
			logger.Infof("[%s] skipped: position already open", sig.Symbol)
			continue
		}
		if err := e.ExecuteSignal(ctx, sig); err != nil {
			logger.Errorf("[%s] order failed: %v", sig.Symbol, err)
			continue
		}
		placed++
	}
}

// ExecuteSignal runs the full order sequence for one signal. Each step's
// error is classified: AlreadySet responses count as done, Soft errors on
// the margin and leverage steps are skipped past, anything Fatal aborts
// before funds move. The entry order is the point of no return; a bracket
// leg that fails afterwards is reported but the entry is not rolled back.
func (e *Executor) ExecuteSignal(ctx context.Context, sig strategy.Signal) error {
	cfg := e.config()
	if err := e.reserveSlot(cfg.DailyLimit); err != nil {
		return err
	}

	spec, ok := e.universe.Spec(sig.Symbol)
	if !ok {
		e.releaseSlot()
		return e.fail(sig, fmt.Errorf("no contract metadata for %s", sig.Symbol))
	}

	if err := e.gw.SetMarginType(ctx, sig.Symbol, true); err != nil {
		switch e.gw.ClassifyError(err) {
		case exchange.ErrClassAlreadySet:
		case exchange.ErrClassSoft:
			logger.Warnf("[%s] margin type not confirmed, continuing: %v", sig.Symbol, err)
		default:
			e.releaseSlot()
			return e.fail(sig, fmt.Errorf("set isolated margin: %w", err))
		}
	}

	if err := e.gw.SetLeverage(ctx, sig.Symbol, cfg.Leverage); err != nil {
		switch e.gw.ClassifyError(err) {
		case exchange.ErrClassAlreadySet:
		case exchange.ErrClassSoft:
			logger.Warnf("[%s] leverage not confirmed, continuing: %v", sig.Symbol, err)
		default:
			e.releaseSlot()
			return e.fail(sig, fmt.Errorf("set leverage %dx: %w", cfg.Leverage, err))
		}
	}

	qty := OrderQuantity(cfg.CapitalPerOrder, cfg.Leverage, sig.Price, spec)
	if qty <= 0 {
		e.releaseSlot()
		return e.fail(sig, fmt.Errorf("quantity below contract minimum at price %g", sig.Price))
	}

	res, err := e.gw.PlaceOrder(ctx, exchange.OrderIntent{
		Symbol:   sig.Symbol,
		Side:     sig.Direction.OrderSide(),
		Type:     exchange.OrderTypeMarket,
		Quantity: qty,
	})
	if err != nil {
		e.releaseSlot()
		return e.fail(sig, fmt.Errorf("market entry: %w", err))
	}

	entry := res.AvgPrice
	if entry <= 0 {
		entry = sig.Price
	}
	tp, sl := BracketPrices(sig.Direction, entry, cfg.Leverage, cfg.TakeProfitROI, cfg.StopLossROI, spec)
	closeSide := sig.Direction.Opposite().OrderSide()

	// The two protective legs are placed independently. Losing one leg is
	// survivable, losing the entry is not, so neither failure unwinds the
	// position; the operator is told instead.
	if _, err := e.gw.PlaceOrder(ctx, exchange.OrderIntent{
		Symbol:        sig.Symbol,
		Side:          closeSide,
		Type:          exchange.OrderTypeTakeProfitMarket,
		StopPrice:     tp,
		ClosePosition: true,
	}); err != nil {
		logger.Errorf("[%s] take-profit leg failed, position unprotected above: %v", sig.Symbol, err)
		tp = 0
	}
	if _, err := e.gw.PlaceOrder(ctx, exchange.OrderIntent{
		Symbol:        sig.Symbol,
		Side:          closeSide,
		Type:          exchange.OrderTypeStopMarket,
		StopPrice:     sl,
		ClosePosition: true,
	}); err != nil {
		logger.Errorf("[%s] stop-loss leg failed, position unprotected below: %v", sig.Symbol, err)
		sl = 0
	}

	side := "LONG"
	if sig.Direction == strategy.Short {
		side = "SHORT"
	}
	e.tracker.Upsert(exchange.Position{
		Symbol:     sig.Symbol,
		Side:       side,
		EntryPrice: entry,
		MarkPrice:  entry,
		Size:       qty,
		Leverage:   float64(cfg.Leverage),
		StopLoss:   sl,
		TakeProfit: tp,
	})

	logger.Infof("[%s] %s order placed: qty=%g entry=%g TP=%g SL=%g", sig.Symbol, sig.Direction, qty, entry, tp, sl)
	if e.orderLog != nil {
		e.orderLog.OrderPlaced(sig, res, qty, tp, sl)
	}
	if err := e.notify.SendOrderPlaced(notifier.OrderEvent{
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		Quantity:   qty,
		EntryPrice: entry,
		Leverage:   cfg.Leverage,
		TakeProfit: tp,
		StopLoss:   sl,
	}); err != nil {
		logger.Warnf("order notification failed: %v", err)
	}
	return nil
}

// ClosePosition flattens a tracked position with a reduce-only market
// order, used by the operator surface.
func (e *Executor) ClosePosition(ctx context.Context, symbol string) error {
	pos, ok := e.tracker.Get(symbol)
	if !ok {
		return fmt.Errorf("no open position for %s", symbol)
	}
	side := exchange.SideSell
	if pos.Side == "SHORT" {
		side = exchange.SideBuy
	}
	if _, err := e.gw.PlaceOrder(ctx, exchange.OrderIntent{
		Symbol:     symbol,
		Side:       side,
		Type:       exchange.OrderTypeMarket,
		Quantity:   pos.Size,
		ReduceOnly: true,
	}); err != nil {
		return fmt.Errorf("close %s: %w", symbol, err)
	}
	e.tracker.Remove(symbol)
	logger.Infof("[%s] position closed manually", symbol)
	return nil
}

// fail records and notifies a failed order attempt, returning err.
func (e *Executor) fail(sig strategy.Signal, err error) error {
	if e.orderLog != nil {
		e.orderLog.OrderFailed(sig, err.Error())
	}
	if nerr := e.notify.SendOrderFailed(notifier.OrderEvent{
		Symbol:    sig.Symbol,
		Direction: sig.Direction,
		Err:       err.Error(),
	}); nerr != nil {
		logger.Warnf("order-failed notification failed: %v", nerr)
	}
	return err
}
