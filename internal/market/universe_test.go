package market

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInfo struct {
	specs []SymbolSpec
	err   error
	calls int
}

func (s *stubInfo) ExchangeInfo(context.Context) ([]SymbolSpec, error) {
	s.calls++
	return s.specs, s.err
}

func tradableSpec(symbol string) SymbolSpec {
	return SymbolSpec{
		Symbol: symbol, QuoteAsset: "USDT", Status: "TRADING", ContractType: "PERPETUAL",
		LotStep: 0.001, TickSize: 0.01, MinQty: 0.001,
	}
}

func TestUniverseFiltersContracts(t *testing.T) {
	info := &stubInfo{specs: []SymbolSpec{
		tradableSpec("BTCUSDT"),
		{Symbol: "ETHBUSD", QuoteAsset: "BUSD", Status: "TRADING", ContractType: "PERPETUAL"},
		{Symbol: "BTCUSDT_240628", QuoteAsset: "USDT", Status: "TRADING", ContractType: "CURRENT_QUARTER"},
		{Symbol: "HALTUSDT", QuoteAsset: "USDT", Status: "BREAK", ContractType: "PERPETUAL"},
		tradableSpec("SOLUSDT"),
	}}
	u := NewUniverse(info, time.Hour, 0)

	symbols := u.Symbols(context.Background())
	assert.Equal(t, []string{"BTCUSDT", "SOLUSDT"}, symbols)

	spec, ok := u.Spec("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 0.001, spec.LotStep)
	_, ok = u.Spec("HALTUSDT")
	assert.False(t, ok)
}

func TestUniverseCachesUntilTTL(t *testing.T) {
	info := &stubInfo{specs: []SymbolSpec{tradableSpec("BTCUSDT")}}
	u := NewUniverse(info, time.Hour, 0)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	u.nowFn = func() time.Time { return now }

	u.Symbols(context.Background())
	u.Symbols(context.Background())
	assert.Equal(t, 1, info.calls)

	now = now.Add(61 * time.Minute)
	u.Symbols(context.Background())
	assert.Equal(t, 2, info.calls)
}

func TestUniverseKeepsStaleCacheOnError(t *testing.T) {
	info := &stubInfo{specs: []SymbolSpec{tradableSpec("BTCUSDT")}}
	u := NewUniverse(info, time.Hour, 0)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	u.nowFn = func() time.Time { return now }

	first := u.Symbols(context.Background())
	require.Equal(t, []string{"BTCUSDT"}, first)

	info.err = fmt.Errorf("rate limited")
	now = now.Add(2 * time.Hour)
	second := u.Symbols(context.Background())
	assert.Equal(t, []string{"BTCUSDT"}, second, "stale snapshot survives a failed refresh")
}

func TestUniverseCapsSymbolCount(t *testing.T) {
	info := &stubInfo{}
	for i := 0; i < 10; i++ {
		info.specs = append(info.specs, tradableSpec(fmt.Sprintf("S%dUSDT", i)))
	}
	u := NewUniverse(info, time.Hour, 4)
	assert.Len(t, u.Symbols(context.Background()), 4)
}
