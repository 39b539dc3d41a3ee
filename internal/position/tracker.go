// Package position keeps the bot's in-memory view of open contract
// positions, reconciled from two sources: full REST snapshots and
// incremental account push updates.
package position

import (
	"context"
	"math"
	"sync"
	"time"

	"perpscan/internal/gateway/exchange"
	"perpscan/internal/gateway/notifier"
	"perpscan/internal/logger"
)

// closeEpsilon is the absolute size below which a position counts as flat.
const closeEpsilon = 1e-9

// Tracker is the symbol-keyed position store. All methods are safe for
// concurrent use.
type Tracker struct {
	gw     exchange.Gateway
	notify notifier.Channel

	mu        sync.RWMutex
	positions map[string]exchange.Position
	nowFn     func() time.Time
}

func NewTracker(gw exchange.Gateway, notify notifier.Channel) *Tracker {
	return &Tracker{
		gw:        gw,
		notify:    notify,
		positions: make(map[string]exchange.Position),
		nowFn:     time.Now,
	}
}

// Get returns the tracked position for a symbol.
func (t *Tracker) Get(symbol string) (exchange.Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.positions[symbol]
	return p, ok
}

// Has reports whether an open position is tracked for the symbol.
func (t *Tracker) Has(symbol string) bool {
	_, ok := t.Get(symbol)
	return ok
}

// List returns a snapshot of all tracked positions.
func (t *Tracker) List() []exchange.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]exchange.Position, 0, len(t.positions))
	for _, p := range t.positions {
		out = append(out, p)
	}
	return out
}

// Upsert stores or overwrites a position entry, used by the executor right
// after an entry fill.
func (t *Tracker) Upsert(p exchange.Position) {
	p.Status = "active"
	p.UpdatedAt = t.nowFn()
	t.mu.Lock()
	t.positions[p.Symbol] = p
	t.mu.Unlock()
}

// Refresh replaces the tracked set with a full exchange snapshot. Bracket
// prices set locally survive the refresh since the position list endpoint
// does not carry them. A tracked position absent from the snapshot closed
// between polls and is announced, so poll-only operation still reports
// closes when the stream is down.
func (t *Tracker) Refresh(ctx context.Context) error {
	fresh, err := t.gw.Positions(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	next := make(map[string]exchange.Position, len(fresh))
	for _, p := range fresh {
		if prev, ok := t.positions[p.Symbol]; ok {
			p.StopLoss = prev.StopLoss
			p.TakeProfit = prev.TakeProfit
		}
		p.Status = "active"
		p.UpdatedAt = t.nowFn()
		next[p.Symbol] = p
	}
	var closed []exchange.Position
	for symbol, prev := range t.positions {
		if _, ok := next[symbol]; !ok {
			closed = append(closed, prev)
		}
	}
	t.positions = next
	t.mu.Unlock()

	for _, p := range closed {
		logger.Infof("[%s] position closed between polls, PnL=%.4f", p.Symbol, p.UnrealizedPnl)
		if t.notify == nil {
			continue
		}
		if err := t.notify.SendPositionClosed(notifier.PositionClosedEvent{
			Symbol:     p.Symbol,
			Side:       p.Side,
			EntryPrice: p.EntryPrice,
			MarkPrice:  p.MarkPrice,
			Pnl:        p.UnrealizedPnl,
		}); err != nil {
			logger.Warnf("position-closed notification failed: %v", err)
		}
	}
	return nil
}

// ApplyStreamUpdate merges one account push entry into the store. An update
// for an untracked symbol is ignored: positions enter the store through the
// executor or Refresh, not through the stream. A tracked position whose
// size collapses to zero is removed and announced.
func (t *Tracker) ApplyStreamUpdate(u exchange.PositionUpdate) {
	t.mu.Lock()
	p, ok := t.positions[u.Symbol]
	if !ok {
		t.mu.Unlock()
		logger.Debugf("[%s] stream update for untracked position ignored", u.Symbol)
		return
	}

	if math.Abs(u.PositionAmt) < closeEpsilon {
		delete(t.positions, u.Symbol)
		t.mu.Unlock()
		logger.Infof("[%s] position closed, PnL=%.4f", u.Symbol, u.UnrealizedPnl)
		if t.notify != nil {
			if err := t.notify.SendPositionClosed(notifier.PositionClosedEvent{
				Symbol:     p.Symbol,
				Side:       p.Side,
				EntryPrice: p.EntryPrice,
				MarkPrice:  u.MarkPrice,
				Pnl:        u.UnrealizedPnl,
			}); err != nil {
				logger.Warnf("position-closed notification failed: %v", err)
			}
		}
		return
	}

	p.Size = math.Abs(u.PositionAmt)
	if u.PositionAmt > 0 {
		p.Side = "LONG"
	} else {
		p.Side = "SHORT"
	}
	if u.EntryPrice > 0 {
		p.EntryPrice = u.EntryPrice
	}
	if u.MarkPrice > 0 {
		p.MarkPrice = u.MarkPrice
	}
	p.UnrealizedPnl = u.UnrealizedPnl
	p.UpdatedAt = t.nowFn()
	t.positions[u.Symbol] = p
	t.mu.Unlock()
}

// Remove drops a symbol from the store without notification, used after a
// manual close.
func (t *Tracker) Remove(symbol string) {
	t.mu.Lock()
	delete(t.positions, symbol)
	t.mu.Unlock()
}

// TotalUnrealized sums unrealized PnL across tracked positions.
func (t *Tracker) TotalUnrealized() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var sum float64
	for _, p := range t.positions {
		sum += p.UnrealizedPnl
	}
	return sum
}
