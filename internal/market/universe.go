package market

import (
	"context"
	"sync"
	"time"

	"perpscan/internal/logger"
)

// SymbolSpec is a read-only snapshot of a tradable contract's metadata,
// refreshed on a TTL and used for quantity/price rounding.
type SymbolSpec struct {
	Symbol       string  `json:"symbol"`
	QuoteAsset   string  `json:"quote_asset"`
	Status       string  `json:"status"`
	ContractType string  `json:"contract_type"`
	LotStep      float64 `json:"lot_step"`
	TickSize     float64 `json:"tick_size"`
	MinQty       float64 `json:"min_qty"`
}

// InfoSource supplies the contract metadata listing, satisfied by the
// exchange gateway.
type InfoSource interface {
	ExchangeInfo(ctx context.Context) ([]SymbolSpec, error)
}

// Universe maintains the tradable-symbol set behind a time-based cache.
// A refresh failure keeps serving the previous snapshot; callers never see
// an error, matching the scan loop's skip-and-continue policy.
type Universe struct {
	gw         InfoSource
	ttl        time.Duration
	maxSymbols int

	mu        sync.Mutex
	symbols   []string
	specs     map[string]SymbolSpec
	refreshed time.Time

	nowFn func() time.Time
}

func NewUniverse(gw InfoSource, ttl time.Duration, maxSymbols int) *Universe {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Universe{
		gw:         gw,
		ttl:        ttl,
		maxSymbols: maxSymbols,
		specs:      make(map[string]SymbolSpec),
		nowFn:      time.Now,
	}
}

// Symbols returns the cached list of perpetual, USDT-quoted, tradable
// symbols, refreshing synchronously when the cache has expired.
func (u *Universe) Symbols(ctx context.Context) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.nowFn().Sub(u.refreshed) > u.ttl {
		u.refreshLocked(ctx)
	}
	out := make([]string, len(u.symbols))
	copy(out, u.symbols)
	return out
}

// Spec returns the cached metadata snapshot for a symbol.
func (u *Universe) Spec(symbol string) (SymbolSpec, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	spec, ok := u.specs[symbol]
	return spec, ok
}

func (u *Universe) refreshLocked(ctx context.Context) {
	all, err := u.gw.ExchangeInfo(ctx)
	if err != nil {
		logger.Errorf("symbol universe refresh failed, keeping %d cached symbols: %v", len(u.symbols), err)
		return
	}
	symbols := make([]string, 0, len(all))
	specs := make(map[string]SymbolSpec, len(all))
	for _, s := range all {
		if s.Status != "TRADING" || s.ContractType != "PERPETUAL" || s.QuoteAsset != "USDT" {
			continue
		}
		if u.maxSymbols > 0 && len(symbols) >= u.maxSymbols {
			break
		}
		symbols = append(symbols, s.Symbol)
		specs[s.Symbol] = s
	}
	u.symbols = symbols
	u.specs = specs
	u.refreshed = u.nowFn()
	logger.Infof("symbol universe refreshed: %d tradable perpetual USDT pairs", len(symbols))
}
