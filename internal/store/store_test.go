package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpscan/internal/gateway/exchange"
	"perpscan/internal/strategy"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "perpscan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func storedSignal(id, symbol string, tpROI float64) strategy.Signal {
	return strategy.Signal{
		ID: id, Symbol: symbol, Direction: strategy.Long,
		Price: 100, Strength: 75, TPROI: tpROI, SLROI: -3,
		Reason: "Range Bottom: RSI 25.0 + Volume Spike",
		Regime: strategy.RegimeSideway, Timestamp: time.Now().UTC(),
	}
}

func TestSaveAndListSignals(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveSignals([]strategy.Signal{
		storedSignal("a", "BTCUSDT", 6),
		storedSignal("b", "ETHUSDT", 7),
	}))

	rows, err := s.RecentSignals(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotEmpty(t, rows[0].Payload)
}

func TestSaveSignalsIdempotent(t *testing.T) {
	s := openTestStore(t)
	batch := []strategy.Signal{storedSignal("a", "BTCUSDT", 6)}

	require.NoError(t, s.SaveSignals(batch))
	require.NoError(t, s.SaveSignals(batch))

	rows, err := s.RecentSignals(10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSaveSignalsEmptyBatch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveSignals(nil))
}

func TestOrderLifecycleRecords(t *testing.T) {
	s := openTestStore(t)

	s.OrderPlaced(storedSignal("a", "BTCUSDT", 6),
		exchange.OrderResult{OrderID: 42, AvgPrice: 100.5}, 2, 100.7, 100.4)
	s.OrderFailed(storedSignal("b", "ETHUSDT", 7), "insufficient balance")

	rows, err := s.RecentOrders(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byStatus := map[string]int{}
	for _, r := range rows {
		byStatus[r.Status]++
	}
	assert.Equal(t, 1, byStatus["placed"])
	assert.Equal(t, 1, byStatus["failed"])
}

func TestDailyStatsAggregate(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveSignals([]strategy.Signal{
		storedSignal("a", "BTCUSDT", 6),
		storedSignal("b", "ETHUSDT", 7),
	}))
	s.OrderPlaced(storedSignal("a", "BTCUSDT", 6), exchange.OrderResult{OrderID: 1}, 2, 0, 0)
	s.OrderFailed(storedSignal("b", "ETHUSDT", 7), "timeout")

	stats, err := s.DailyStats(7)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Signals)
	assert.Equal(t, 1, stats[0].OrdersPlaced)
	assert.Equal(t, 1, stats[0].OrdersFailed)
	assert.Equal(t, time.Now().Format("2006-01-02"), stats[0].Day)
}
